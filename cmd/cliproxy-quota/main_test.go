package main

import (
	"testing"
	"time"

	"github.com/loveeatcandy/cliproxy-quota/internal/config"
	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

func testSettings() config.Settings {
	return config.Settings{
		BaseURL:        "https://proxy.example",
		ManagementKey:  "secret",
		RequestTimeout: 15 * time.Second,
		WarnThreshold:  0.20,
		Providers:      config.DefaultProviders(),
	}
}

func TestMenuOptionsMapping(t *testing.T) {
	opts := menuOptions(testSettings())

	if opts.ManagementURL != "https://proxy.example" {
		t.Fatalf("unexpected management URL %q", opts.ManagementURL)
	}
	if opts.WarnThreshold != 0.20 {
		t.Fatalf("unexpected threshold %v", opts.WarnThreshold)
	}
	if len(opts.Providers) != 2 {
		t.Fatalf("expected 2 provider displays, got %d", len(opts.Providers))
	}
	if opts.Providers[0].Name != "codex" || opts.Providers[0].Icon != "🤖" || opts.Providers[0].Letter != "C" {
		t.Fatalf("unexpected codex display %+v", opts.Providers[0])
	}
	if opts.Providers[1].Name != "antigravity" || opts.Providers[1].Label != "Antigravity" {
		t.Fatalf("unexpected antigravity display %+v", opts.Providers[1])
	}
}

func TestModelGroupsFromSettings(t *testing.T) {
	groups := modelGroups(testSettings())
	if len(groups) == 0 {
		t.Fatalf("expected default antigravity groups")
	}

	settings := testSettings()
	settings.Providers[1].Groups = []quota.ModelGroup{
		{ID: "custom", Label: "Custom", Models: []string{"model-x"}},
	}
	groups = modelGroups(settings)
	if len(groups) != 1 || groups[0].ID != "custom" {
		t.Fatalf("configured groups should win, got %+v", groups)
	}
}

func TestBuildFetcherWiresClient(t *testing.T) {
	fetcher, client := buildFetcher(testSettings(), nil)
	if fetcher == nil {
		t.Fatalf("expected fetcher")
	}
	if client.BaseURL() != "https://proxy.example" {
		t.Fatalf("unexpected client base URL %q", client.BaseURL())
	}
}
