package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loveeatcandy/cliproxy-quota/internal/config"
	"github.com/loveeatcandy/cliproxy-quota/internal/menu"
	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

// menuCycleTimeout bounds one whole menu fetch cycle; individual HTTP calls
// are bounded separately by the configured request timeout.
const menuCycleTimeout = 60 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	var debug bool

	root := &cobra.Command{
		Use:           "cliproxy-quota",
		Short:         "SwiftBar widget showing CLIProxyAPI provider quota",
		Long:          "cliproxy-quota renders CLIProxyAPI account quota as SwiftBar menu markup.\nRun without arguments from SwiftBar; use watch for a live terminal view.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMenu(debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")
	root.AddCommand(newWatchCommand(&debug))
	root.AddCommand(newDoctorCommand(&debug))
	root.AddCommand(newSnapshotCommand(&debug))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runMenu is the SwiftBar entry point. It never returns an error: any
// failure renders as a degraded menu so the host keeps the widget alive.
func runMenu(debug bool) error {
	log := newLogger(debug)
	defer func() { _ = log.Sync() }()

	settings, err := config.Load()
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		fmt.Print(menu.RenderError(err.Error()))
		return nil
	}

	fetcher, _ := buildFetcher(settings, log)

	ctx, cancel := context.WithTimeout(context.Background(), menuCycleTimeout)
	defer cancel()

	snap := fetcher.Fetch(ctx)
	fmt.Print(menu.Render(snap, menuOptions(settings)))
	return nil
}

func newLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func buildFetcher(settings config.Settings, log *zap.Logger) (*quota.Fetcher, *quota.Client) {
	client := quota.NewClient(settings.BaseURL, settings.ManagementKey, settings.RequestTimeout, log)
	adapters := quota.Adapters(modelGroups(settings))
	fetcher := quota.NewFetcher(client, settings.ProviderNames(), adapters, log)
	return fetcher, client
}

func modelGroups(settings config.Settings) []quota.ModelGroup {
	for _, p := range settings.Providers {
		if len(p.Groups) > 0 {
			return p.Groups
		}
	}
	return nil
}

func menuOptions(settings config.Settings) menu.Options {
	return menu.Options{
		Providers: lo.Map(settings.Providers, func(p config.Provider, _ int) menu.ProviderDisplay {
			return menu.ProviderDisplay{
				Name:   p.Name,
				Icon:   p.Icon,
				Letter: p.Letter,
				Label:  p.Label,
			}
		}),
		ManagementURL: settings.BaseURL,
		WarnThreshold: settings.WarnThreshold,
	}
}
