package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/loveeatcandy/cliproxy-quota/internal/config"
	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
	"github.com/loveeatcandy/cliproxy-quota/internal/tui"
)

func newWatchCommand(debug *bool) *cobra.Command {
	var (
		interval    time.Duration
		timeout     time.Duration
		noColor     bool
		noAltScreen bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of provider quota",
		RunE: func(_ *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be > 0")
			}
			if timeout <= 0 {
				return fmt.Errorf("--timeout must be > 0")
			}
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("watch requires a TTY")
			}

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
			prog := tui.NewProgram(tui.Options{
				Interval:      interval,
				Timeout:       timeout,
				NoColor:       noColor,
				AltScreen:     !noAltScreen,
				WarnThreshold: settings.WarnThreshold,
				Fetch: func(ctx context.Context) quota.Snapshot {
					return fetcher.Fetch(ctx)
				},
			})

			stopWatch := watchConfigDir(prog, log)
			defer stopWatch()

			_, err = prog.Run()
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "poll interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-poll fetch timeout")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable color styling")
	cmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable alternate screen mode")
	return cmd
}

// watchConfigDir triggers an immediate refresh whenever files in the config
// dir change, so edited credentials show up without waiting for the next
// poll. Watch failures are non-fatal; polling still covers the update.
func watchConfigDir(prog *tea.Program, log *zap.Logger) func() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug("config watcher unavailable", zap.Error(err))
		return func() {}
	}
	if err := watcher.Add(config.ConfigDir()); err != nil {
		log.Debug("config dir not watchable", zap.Error(err))
		_ = watcher.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Debug("config change detected", zap.String("file", ev.Name))
					prog.Send(tui.RefreshRequestMsg{})
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return func() { _ = watcher.Close() }
}
