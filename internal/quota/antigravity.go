package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

const (
	antigravityProvider         = "antigravity"
	antigravityUserAgent        = "antigravity/1.11.5 windows/amd64"
	antigravityDefaultProjectID = "bamboo-precept-lgxtn"
)

// Ordered upstream fallback list; the daily endpoint serves most accounts but
// sandbox and stable tenants answer on the others.
var antigravityQuotaURLs = []string{
	"https://daily-cloudcode-pa.googleapis.com/v1internal:fetchAvailableModels",
	"https://daily-cloudcode-pa.sandbox.googleapis.com/v1internal:fetchAvailableModels",
	"https://cloudcode-pa.googleapis.com/v1internal:fetchAvailableModels",
}

// AntigravityAdapter probes Gemini/Claude model quota through the api-call
// proxy and folds per-model fractions into display groups.
type AntigravityAdapter struct {
	Groups []ModelGroup
}

func (a *AntigravityAdapter) Provider() string {
	return antigravityProvider
}

func (a *AntigravityAdapter) Probe(ctx context.Context, client *Client, file AuthFile, now time.Time) AccountRecord {
	rec := baseRecord(file)

	if file.AuthIndex == "" {
		rec.Err = "missing auth_index"
		return rec
	}

	projectID := file.ProjectID
	if projectID == "" {
		projectID = antigravityDefaultProjectID
	}
	body, err := json.Marshal(map[string]string{"project": projectID})
	if err != nil {
		rec.Err = err.Error()
		return rec
	}

	lastErr := ""
	for _, url := range antigravityQuotaURLs {
		res, err := client.APICall(ctx, APICallRequest{
			AuthIndex: file.AuthIndex,
			Method:    http.MethodPost,
			URL:       url,
			Header: map[string]string{
				"Authorization": "Bearer $TOKEN$",
				"Content-Type":  "application/json",
				"User-Agent":    antigravityUserAgent,
			},
			Data: string(body),
		})
		if err != nil {
			lastErr = err.Error()
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			lastErr = fmt.Sprintf("HTTP %d", res.StatusCode)
			continue
		}

		var payload antigravityModelsRaw
		if err := res.DecodeBody(&payload); err != nil {
			lastErr = err.Error()
			continue
		}
		if len(payload.Models) == 0 {
			lastErr = "no models in response"
			continue
		}

		a.fillFromModels(&rec, payload.Models)
		return rec
	}

	if lastErr == "" {
		lastErr = "all endpoints failed"
	}
	rec.Err = lastErr
	return rec
}

// fillFromModels aggregates per-model quota into the configured groups, each
// group keeping the lowest remaining fraction among its members. The account
// fraction is the minimum across groups: the bar should reflect the most
// constrained model family.
func (a *AntigravityAdapter) fillFromModels(rec *AccountRecord, models map[string]antigravityModelRaw) {
	groupByModel := map[string]ModelGroup{}
	for _, group := range a.Groups {
		for _, id := range group.Models {
			groupByModel[id] = group
		}
	}

	type groupQuota struct {
		label     string
		remaining *float64
		resetAt   *time.Time
	}
	byGroup := map[string]*groupQuota{}

	for modelID, info := range models {
		group, ok := groupByModel[modelID]
		if !ok {
			continue
		}
		entry := byGroup[group.ID]
		if entry == nil {
			entry = &groupQuota{label: group.Label}
			byGroup[group.ID] = entry
		}
		remaining := info.remaining()
		if remaining == nil {
			continue
		}
		frac := clampFraction(*remaining)
		if entry.remaining == nil || frac < *entry.remaining {
			entry.remaining = &frac
			entry.resetAt = parseResetTime(info.resetTime())
		}
	}

	groups := make([]*groupQuota, 0, len(byGroup))
	for _, entry := range byGroup {
		groups = append(groups, entry)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].label < groups[j].label
	})

	for _, entry := range groups {
		detail := DetailLine{Label: entry.label, ResetAt: entry.resetAt}
		if entry.remaining != nil {
			pct := roundHalfUp(*entry.remaining * 100)
			detail.RemainingPercent = &pct
			if rec.RemainingFraction == nil || *entry.remaining < *rec.RemainingFraction {
				frac := *entry.remaining
				rec.RemainingFraction = &frac
			}
		}
		rec.Details = append(rec.Details, detail)
	}
}

func parseResetTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}

func DefaultModelGroups() []ModelGroup {
	return []ModelGroup{
		{
			ID:    "claude-gpt",
			Label: "Claude/GPT",
			Models: []string{
				"claude-sonnet-4-5-thinking",
				"claude-opus-4-5-thinking",
				"claude-opus-4-6-thinking",
				"claude-sonnet-4-5",
				"claude-sonnet-4-6",
				"gpt-oss-120b-medium",
			},
		},
		{
			ID:    "gemini-3-pro",
			Label: "Gemini 3 Pro",
			Models: []string{
				"gemini-3-pro-high",
				"gemini-3-pro-low",
				"gemini-3.1-pro-high",
				"gemini-3.1-pro-low",
			},
		},
		{
			ID:    "gemini-3-flash",
			Label: "Gemini 3 Flash",
			Models: []string{
				"gemini-3-flash",
				"gemini-3.1-flash-image",
			},
		},
		{
			ID:     "gemini-2.5-pro",
			Label:  "Gemini 2.5 Pro",
			Models: []string{"gemini-2.5-pro"},
		},
		{
			ID:    "gemini-2-5-flash",
			Label: "Gemini 2.5 Flash",
			Models: []string{
				"gemini-2.5-flash",
				"gemini-2.5-flash-thinking",
			},
		},
		{
			ID:     "gemini-2-5-flash-lite",
			Label:  "Gemini 2.5 Flash Lite",
			Models: []string{"gemini-2.5-flash-lite"},
		},
	}
}
