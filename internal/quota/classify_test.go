package quota

import "testing"

func fracPtr(v float64) *float64 {
	return &v
}

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		rec  AccountRecord
		want HealthState
	}{
		{
			name: "disabled wins over everything",
			rec:  AccountRecord{Disabled: true, RateLimited: true, Warning: true, RemainingFraction: fracPtr(0.9)},
			want: HealthDisabled,
		},
		{
			name: "rate limited beats warning",
			rec:  AccountRecord{RateLimited: true, Warning: true, RemainingFraction: fracPtr(0.9)},
			want: HealthRateLimited,
		},
		{
			name: "explicit warning flag",
			rec:  AccountRecord{Warning: true, RemainingFraction: fracPtr(0.9)},
			want: HealthWarning,
		},
		{
			name: "fraction below threshold",
			rec:  AccountRecord{RemainingFraction: fracPtr(0.1)},
			want: HealthWarning,
		},
		{
			name: "fraction at threshold is ready",
			rec:  AccountRecord{RemainingFraction: fracPtr(0.2)},
			want: HealthReady,
		},
		{
			name: "healthy fraction",
			rec:  AccountRecord{RemainingFraction: fracPtr(0.8)},
			want: HealthReady,
		},
		{
			name: "no signals at all",
			rec:  AccountRecord{},
			want: HealthUnknown,
		},
		{
			name: "unknown fraction never warns",
			rec:  AccountRecord{Err: "HTTP 500"},
			want: HealthUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.rec, 0.20)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHealthStateIconsAreTotal(t *testing.T) {
	states := []HealthState{HealthReady, HealthRateLimited, HealthWarning, HealthDisabled, HealthUnknown, HealthState("bogus")}
	for _, state := range states {
		if state.Icon() == "" {
			t.Fatalf("expected icon for state %q", state)
		}
	}
}
