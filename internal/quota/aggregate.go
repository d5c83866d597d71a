package quota

import (
	"math"

	"github.com/samber/lo"
)

// Aggregate reduces a provider's account records to one summary row. Accounts
// with unknown quota are excluded from the mean rather than counted as zero;
// when nothing is known the aggregate stays nil and renders as a sentinel.
func Aggregate(provider string, records []AccountRecord) ProviderSummary {
	out := ProviderSummary{
		Provider:     provider,
		AccountCount: len(records),
	}

	fractions := lo.FilterMap(records, func(rec AccountRecord, _ int) (float64, bool) {
		if rec.RemainingFraction == nil {
			return 0, false
		}
		return *rec.RemainingFraction, true
	})
	if len(fractions) == 0 {
		return out
	}

	mean := lo.Sum(fractions) / float64(len(fractions))
	pct := roundHalfUp(mean * 100)
	out.AggregatePercent = &pct
	return out
}

func roundHalfUp(v float64) int {
	n := int(math.Floor(v + 0.5))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// clampFraction keeps provider-reported fractions inside [0, 1]; upstream
// payloads occasionally report slightly negative or >1 values.
func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
