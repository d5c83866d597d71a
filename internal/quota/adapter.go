package quota

import (
	"context"
	"time"
)

// Adapter turns one provider's auth file into a normalized account record.
// Probe never returns an error: per-account failures are data (Err on the
// record) so one bad credential cannot sink the batch.
type Adapter interface {
	Provider() string
	Probe(ctx context.Context, client *Client, file AuthFile, now time.Time) AccountRecord
}

// ModelGroup is one display bucket of Antigravity model IDs. The group's
// quota is the minimum remaining fraction across its members.
type ModelGroup struct {
	ID     string   `yaml:"id"`
	Label  string   `yaml:"label"`
	Models []string `yaml:"models"`
}

// Adapters returns the built-in provider adapters in tracking order.
func Adapters(groups []ModelGroup) []Adapter {
	if len(groups) == 0 {
		groups = DefaultModelGroups()
	}
	return []Adapter{
		&CodexAdapter{},
		&AntigravityAdapter{Groups: groups},
	}
}

// baseRecord carries the auth-file level signals every adapter starts from.
// The unavailable flag maps to the warning state: the credential still works
// but the server flagged it degraded.
func baseRecord(file AuthFile) AccountRecord {
	return AccountRecord{
		Provider:  file.Provider,
		AccountID: file.DisplayID(),
		PlanType:  file.PlanType,
		Disabled:  file.Disabled,
		Warning:   file.Unavailable,
	}
}
