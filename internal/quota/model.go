package quota

import "time"

// AccountRecord is the normalized per-account quota row shared by the menu,
// watch, and snapshot outputs. A nil RemainingFraction means the provider did
// not report usable quota data for this account.
type AccountRecord struct {
	Provider          string       `json:"provider"`
	AccountID         string       `json:"account_id"`
	PlanType          string       `json:"plan_type,omitempty"`
	RemainingFraction *float64     `json:"remaining_fraction,omitempty"`
	RateLimited       bool         `json:"rate_limited,omitempty"`
	Disabled          bool         `json:"disabled,omitempty"`
	Warning           bool         `json:"warning,omitempty"`
	Err               string       `json:"error,omitempty"`
	Details           []DetailLine `json:"details,omitempty"`
}

// DetailLine is one dropdown sub-row: a rate-limit window for Codex, a model
// group for Antigravity.
type DetailLine struct {
	Label            string     `json:"label"`
	RemainingPercent *int       `json:"remaining_percent,omitempty"`
	ResetAt          *time.Time `json:"reset_at,omitempty"`
}

type ProviderSummary struct {
	Provider         string `json:"provider"`
	AggregatePercent *int   `json:"aggregate_percent,omitempty"`
	AccountCount     int    `json:"account_count"`
}

// Snapshot is one complete fetch cycle. Providers keeps the configured
// tracking order; Accounts preserves auth-file order within each provider.
type Snapshot struct {
	Providers []ProviderSummary          `json:"providers"`
	Accounts  map[string][]AccountRecord `json:"accounts,omitempty"`
	FetchedAt time.Time                  `json:"fetched_at"`
	FetchErr  string                     `json:"fetch_error,omitempty"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details"`
}
