package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loveeatcandy/cliproxy-quota/internal/config"
	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

func newDoctorCommand(debug *bool) *cobra.Command {
	var (
		jsonOutput bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and management API reachability",
		RunE: func(_ *cobra.Command, _ []string) error {
			if timeout <= 0 {
				return fmt.Errorf("--timeout must be > 0")
			}

			log := newLogger(*debug)
			defer func() { _ = log.Sync() }()

			settings, err := config.Load()
			if err != nil {
				return err
			}
			client := quota.NewClient(settings.BaseURL, settings.ManagementKey, settings.RequestTimeout, log)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			report := quota.RunDoctor(ctx, client, settings.ProviderNames(), timeout)

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
			} else {
				printDoctorHuman(report)
			}

			if !report.Healthy() {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output report as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "doctor timeout")
	return cmd
}

func printDoctorHuman(report quota.DoctorReport) {
	fmt.Println("cliproxy-quota doctor")
	fmt.Println()
	for _, c := range report.Checks {
		state := "FAIL"
		if c.OK {
			state = "PASS"
		}
		fmt.Printf("[%s] %s\n", state, c.Name)
		fmt.Printf("  %s\n", c.Details)
	}
}
