package quota

// HealthState is the discrete per-account status shown next to each dropdown
// row. Classification is signal-priority based, not score based.
type HealthState string

const (
	HealthReady       HealthState = "ready"
	HealthRateLimited HealthState = "rate_limited"
	HealthWarning     HealthState = "warning"
	HealthDisabled    HealthState = "disabled"
	HealthUnknown     HealthState = "unknown"
)

func (h HealthState) Icon() string {
	switch h {
	case HealthReady:
		return "🟢"
	case HealthRateLimited:
		return "🔴"
	case HealthWarning:
		return "🟡"
	case HealthDisabled:
		return "⚫"
	default:
		return "⚫"
	}
}

// Classify maps an account record to its health state. Priority order:
// disabled beats rate-limited beats warning beats ready. An account with no
// signals at all (no flags, unknown fraction) is Unknown rather than Ready.
// An unknown fraction never counts as "below threshold".
func Classify(rec AccountRecord, warnThreshold float64) HealthState {
	switch {
	case rec.Disabled:
		return HealthDisabled
	case rec.RateLimited:
		return HealthRateLimited
	case rec.Warning:
		return HealthWarning
	case rec.RemainingFraction != nil && *rec.RemainingFraction < warnThreshold:
		return HealthWarning
	case rec.RemainingFraction != nil:
		return HealthReady
	default:
		return HealthUnknown
	}
}
