package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CPA_BASE_URL", "https://proxy.example/")
	t.Setenv("CPA_MANAGEMENT_KEY", " secret ")
	t.Setenv("CPA_REQUEST_TIMEOUT", "30")
	t.Setenv("CPA_WARN_THRESHOLD", "0.10")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.BaseURL != "https://proxy.example" {
		t.Fatalf("trailing slash should be trimmed, got %q", settings.BaseURL)
	}
	if settings.ManagementKey != "secret" {
		t.Fatalf("key should be trimmed, got %q", settings.ManagementKey)
	}
	if settings.RequestTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", settings.RequestTimeout)
	}
	if settings.WarnThreshold != 0.10 {
		t.Fatalf("expected 0.10 threshold, got %v", settings.WarnThreshold)
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("expected valid settings: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CPA_BASE_URL", "https://proxy.example")
	t.Setenv("CPA_MANAGEMENT_KEY", "secret")

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.RequestTimeout != 15*time.Second {
		t.Fatalf("expected default 15s timeout, got %v", settings.RequestTimeout)
	}
	if settings.WarnThreshold != 0.20 {
		t.Fatalf("expected default 0.20 threshold, got %v", settings.WarnThreshold)
	}
	if got := settings.ProviderNames(); len(got) != 2 || got[0] != "codex" || got[1] != "antigravity" {
		t.Fatalf("expected default tracked providers, got %v", got)
	}
}

func TestValidateMissingValues(t *testing.T) {
	if err := (Settings{}).Validate(); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
	if err := (Settings{BaseURL: "https://x"}).Validate(); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestLoadProvidersMissingFileUsesDefaults(t *testing.T) {
	providers, err := LoadProviders(filepath.Join(t.TempDir(), "providers.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 default providers, got %d", len(providers))
	}
	if providers[0].Icon != "🤖" || providers[1].Icon != "🌀" {
		t.Fatalf("unexpected default icons: %+v", providers)
	}
	if len(providers[1].Groups) == 0 {
		t.Fatalf("antigravity default should carry model groups")
	}
}

func TestLoadProvidersOverridesInheritDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
providers:
  - name: antigravity
    icon: "🚀"
  - name: codex
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	providers, err := LoadProviders(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].Name != "antigravity" {
		t.Fatalf("file order should win, got %+v", providers)
	}
	if providers[0].Icon != "🚀" {
		t.Fatalf("override icon lost: %q", providers[0].Icon)
	}
	if providers[0].Label != "Antigravity" || len(providers[0].Groups) == 0 {
		t.Fatalf("missing fields should inherit defaults: %+v", providers[0])
	}
	if providers[1].Letter != "C" {
		t.Fatalf("codex letter should inherit default, got %q", providers[1].Letter)
	}
}

func TestLoadProvidersUnknownProviderGetsFallbackDisplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	content := `
providers:
  - name: gemini
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	providers, err := LoadProviders(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(providers))
	}
	p := providers[0]
	if p.Letter != "G" || p.Label != "gemini" || p.Icon == "" {
		t.Fatalf("expected synthesized display fields, got %+v", p)
	}
}

func TestLoadProvidersMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte("providers: ["), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadProviders(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
