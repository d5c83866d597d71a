package quota

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func antigravityFile() AuthFile {
	return AuthFile{
		Name:      "ag-1.json",
		Provider:  "antigravity",
		AuthIndex: "2",
		Email:     "b@example.com",
	}
}

func testGroups() []ModelGroup {
	return []ModelGroup{
		{ID: "claude", Label: "Claude", Models: []string{"claude-sonnet", "claude-opus"}},
		{ID: "gemini", Label: "Gemini", Models: []string{"gemini-pro"}},
	}
}

func TestAntigravityProbeGroupsByMinimumFraction(t *testing.T) {
	client := newTestClient(t, proxyHandler(t, func(req APICallRequest) (int, string) {
		var body map[string]string
		if err := json.Unmarshal([]byte(req.Data), &body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if body["project"] != antigravityDefaultProjectID {
			t.Fatalf("expected default project, got %q", body["project"])
		}
		return 200, `{
			"models": {
				"claude-sonnet": {"quotaInfo": {"remainingFraction": 0.8, "resetTime": "2026-02-27T18:00:00Z"}},
				"claude-opus": {"quotaInfo": {"remainingFraction": 0.3, "resetTime": "2026-02-27T20:00:00Z"}},
				"gemini-pro": {"quotaInfo": {"remaining_fraction": 0.9}},
				"unlisted-model": {"quotaInfo": {"remainingFraction": 0.01}}
			}
		}`
	}))

	adapter := &AntigravityAdapter{Groups: testGroups()}
	rec := adapter.Probe(context.Background(), client, antigravityFile(), time.Now())

	if rec.Err != "" {
		t.Fatalf("unexpected error: %s", rec.Err)
	}
	if len(rec.Details) != 2 {
		t.Fatalf("expected 2 group details, got %d", len(rec.Details))
	}
	// Groups sort by label.
	if rec.Details[0].Label != "Claude" || *rec.Details[0].RemainingPercent != 30 {
		t.Fatalf("expected Claude group at min fraction, got %+v", rec.Details[0])
	}
	if rec.Details[0].ResetAt == nil || rec.Details[0].ResetAt.Hour() != 20 {
		t.Fatalf("reset time should follow the minimum model, got %+v", rec.Details[0].ResetAt)
	}
	if rec.Details[1].Label != "Gemini" || *rec.Details[1].RemainingPercent != 90 {
		t.Fatalf("snake_case fraction fallback failed, got %+v", rec.Details[1])
	}
	if rec.RemainingFraction == nil || *rec.RemainingFraction != 0.3 {
		t.Fatalf("account fraction should be the min across groups, got %+v", rec.RemainingFraction)
	}
}

func TestAntigravityProbeFallsBackAcrossURLs(t *testing.T) {
	var urls []string
	client := newTestClient(t, proxyHandler(t, func(req APICallRequest) (int, string) {
		urls = append(urls, req.URL)
		if len(urls) < 3 {
			return 503, ""
		}
		return 200, `{"models": {"gemini-pro": {"quotaInfo": {"remainingFraction": 0.5}}}}`
	}))

	adapter := &AntigravityAdapter{Groups: testGroups()}
	rec := adapter.Probe(context.Background(), client, antigravityFile(), time.Now())

	if rec.Err != "" {
		t.Fatalf("expected third endpoint to succeed, got error %q", rec.Err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(urls))
	}
	for i, url := range urls {
		if url != antigravityQuotaURLs[i] {
			t.Fatalf("fallback order broken at %d: %s", i, url)
		}
	}
}

func TestAntigravityProbeAllEndpointsFail(t *testing.T) {
	client := newTestClient(t, proxyHandler(t, func(APICallRequest) (int, string) {
		return 500, ""
	}))

	rec := (&AntigravityAdapter{Groups: testGroups()}).Probe(context.Background(), client, antigravityFile(), time.Now())
	if rec.Err != "HTTP 500" {
		t.Fatalf("expected last error surfaced, got %q", rec.Err)
	}
	if rec.RemainingFraction != nil {
		t.Fatalf("failed probe must leave fraction unknown")
	}
}

func TestAntigravityProbeNoModels(t *testing.T) {
	client := newTestClient(t, proxyHandler(t, func(APICallRequest) (int, string) {
		return 200, `{"models": {}}`
	}))

	rec := (&AntigravityAdapter{Groups: testGroups()}).Probe(context.Background(), client, antigravityFile(), time.Now())
	if !strings.Contains(rec.Err, "no models") {
		t.Fatalf("expected no-models error, got %q", rec.Err)
	}
}

func TestAntigravityProbeUnknownFractionGroup(t *testing.T) {
	client := newTestClient(t, proxyHandler(t, func(APICallRequest) (int, string) {
		return 200, `{"models": {"gemini-pro": {}}}`
	}))

	rec := (&AntigravityAdapter{Groups: testGroups()}).Probe(context.Background(), client, antigravityFile(), time.Now())
	if rec.Err != "" {
		t.Fatalf("unexpected error: %s", rec.Err)
	}
	if len(rec.Details) != 1 {
		t.Fatalf("group with members should still render, got %d details", len(rec.Details))
	}
	if rec.Details[0].RemainingPercent != nil {
		t.Fatalf("expected unknown group percent")
	}
	if rec.RemainingFraction != nil {
		t.Fatalf("expected unknown account fraction")
	}
}

func TestAntigravityProbeCustomProject(t *testing.T) {
	client := newTestClient(t, proxyHandler(t, func(req APICallRequest) (int, string) {
		var body map[string]string
		if err := json.Unmarshal([]byte(req.Data), &body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if body["project"] != "my-project" {
			t.Fatalf("expected auth-file project, got %q", body["project"])
		}
		return 200, `{"models": {"gemini-pro": {"quotaInfo": {"remainingFraction": 1.0}}}}`
	}))

	file := antigravityFile()
	file.ProjectID = "my-project"
	rec := (&AntigravityAdapter{Groups: testGroups()}).Probe(context.Background(), client, file, time.Now())
	if rec.Err != "" {
		t.Fatalf("unexpected error: %s", rec.Err)
	}
}

func TestDefaultModelGroupsCoverKnownModels(t *testing.T) {
	groups := DefaultModelGroups()
	seen := map[string]string{}
	for _, group := range groups {
		if group.ID == "" || group.Label == "" || len(group.Models) == 0 {
			t.Fatalf("incomplete group %+v", group)
		}
		for _, id := range group.Models {
			if prev, ok := seen[id]; ok {
				t.Fatalf("model %s in both %s and %s", id, prev, group.ID)
			}
			seen[id] = group.ID
		}
	}
	if _, ok := seen["gemini-3-pro-high"]; !ok {
		t.Fatalf("expected gemini-3-pro-high in default groups")
	}
}
