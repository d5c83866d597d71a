package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

// Provider is the display configuration for one tracked provider: the status
// bar token is Icon+Letter, the dropdown header uses Icon+Label.
type Provider struct {
	Name   string             `yaml:"name"`
	Icon   string             `yaml:"icon"`
	Letter string             `yaml:"letter"`
	Label  string             `yaml:"label"`
	Groups []quota.ModelGroup `yaml:"groups,omitempty"`
}

type Settings struct {
	BaseURL        string
	ManagementKey  string
	RequestTimeout time.Duration
	WarnThreshold  float64
	Providers      []Provider
}

func (s Settings) ProviderNames() []string {
	out := make([]string, 0, len(s.Providers))
	for _, p := range s.Providers {
		out = append(out, p.Name)
	}
	return out
}

// Validate reports missing required values. The menu path turns this into a
// degraded render instead of a crash.
func (s Settings) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("CPA_BASE_URL not set")
	}
	if s.ManagementKey == "" {
		return fmt.Errorf("CPA_MANAGEMENT_KEY not set")
	}
	return nil
}

func DefaultProviders() []Provider {
	return []Provider{
		{Name: "codex", Icon: "🤖", Letter: "C", Label: "Codex"},
		{
			Name:   "antigravity",
			Icon:   "🌀",
			Letter: "A",
			Label:  "Antigravity",
			Groups: quota.DefaultModelGroups(),
		},
	}
}

func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cliproxy-quota")
}

// Load resolves settings from, in rising priority: built-in defaults, .env
// files (next to the executable, then the config dir), then the process
// environment. Missing files are fine; a missing key is caught by Validate.
func Load() (Settings, error) {
	v := viper.New()
	v.SetDefault("cpa_request_timeout", 15)
	v.SetDefault("cpa_warn_threshold", 0.20)

	v.SetConfigType("env")
	for _, path := range envFileCandidates() {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Settings{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	timeoutSeconds := v.GetInt("cpa_request_timeout")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}
	warnThreshold := v.GetFloat64("cpa_warn_threshold")
	if warnThreshold <= 0 || warnThreshold >= 1 {
		warnThreshold = 0.20
	}

	providers, err := LoadProviders(filepath.Join(ConfigDir(), "providers.yaml"))
	if err != nil {
		// Display overrides are optional; fall back to the built-ins.
		providers = DefaultProviders()
	}

	return Settings{
		BaseURL:        strings.TrimRight(strings.TrimSpace(v.GetString("cpa_base_url")), "/"),
		ManagementKey:  strings.TrimSpace(v.GetString("cpa_management_key")),
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		WarnThreshold:  warnThreshold,
		Providers:      providers,
	}, nil
}

func envFileCandidates() []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), ".env"))
	}
	out = append(out, filepath.Join(ConfigDir(), ".env"))
	return out
}

type providersFile struct {
	Providers []Provider `yaml:"providers"`
}

// LoadProviders reads the optional providers.yaml display override file. A
// missing file yields the defaults; entries missing display fields or model
// groups inherit them from the default provider of the same name.
func LoadProviders(path string) ([]Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProviders(), nil
		}
		return nil, fmt.Errorf("reading providers file: %w", err)
	}

	var parsed providersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(parsed.Providers) == 0 {
		return DefaultProviders(), nil
	}

	defaults := map[string]Provider{}
	for _, p := range DefaultProviders() {
		defaults[p.Name] = p
	}
	out := make([]Provider, 0, len(parsed.Providers))
	for _, p := range parsed.Providers {
		if p.Name == "" {
			continue
		}
		base := defaults[p.Name]
		if p.Icon == "" {
			p.Icon = base.Icon
		}
		if p.Letter == "" {
			p.Letter = base.Letter
		}
		if p.Label == "" {
			p.Label = base.Label
		}
		if len(p.Groups) == 0 {
			p.Groups = base.Groups
		}
		if p.Icon == "" {
			p.Icon = "📊"
		}
		if p.Letter == "" {
			p.Letter = strings.ToUpper(p.Name[:1])
		}
		if p.Label == "" {
			p.Label = p.Name
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return DefaultProviders(), nil
	}
	return out, nil
}
