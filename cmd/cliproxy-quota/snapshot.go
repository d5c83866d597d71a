package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loveeatcandy/cliproxy-quota/internal/config"
)

func newSnapshotCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the normalized quota snapshot as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			log := newLogger(*debug)
			defer func() { _ = log.Sync() }()

			settings, err := config.Load()
			if err == nil {
				err = settings.Validate()
			}
			if err != nil {
				return err
			}

			fetcher, _ := buildFetcher(settings, log)

			ctx, cancel := context.WithTimeout(context.Background(), menuCycleTimeout)
			defer cancel()

			snap := fetcher.Fetch(ctx)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			if snap.FetchErr != "" {
				return fmt.Errorf("fetch failed: %s", snap.FetchErr)
			}
			return nil
		},
	}
}
