package quota

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxProbeParallelism = 4

// Fetcher runs one full collection cycle: list auth files, probe tracked
// accounts concurrently, aggregate per provider. It never returns an error;
// a top-level failure becomes a degraded Snapshot so the menu path can keep
// its always-render contract.
type Fetcher struct {
	client    *Client
	providers []string
	adapters  map[string]Adapter
	log       *zap.Logger

	now func() time.Time
}

func NewFetcher(client *Client, providers []string, adapters []Adapter, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	byProvider := lo.KeyBy(adapters, func(a Adapter) string { return a.Provider() })
	return &Fetcher{
		client:    client,
		providers: providers,
		adapters:  byProvider,
		log:       log,
		now:       func() time.Time { return time.Now() },
	}
}

func (f *Fetcher) Fetch(ctx context.Context) Snapshot {
	now := f.now()
	out := Snapshot{FetchedAt: now}

	files, err := f.client.ListAuthFiles(ctx)
	if err != nil {
		f.log.Warn("auth file listing failed", zap.Error(err))
		out.FetchErr = err.Error()
		return out
	}

	tracked := f.filterTracked(files)
	records := f.probeConcurrent(ctx, tracked, now)

	out.Accounts = map[string][]AccountRecord{}
	for _, rec := range records {
		out.Accounts[rec.Provider] = append(out.Accounts[rec.Provider], rec)
	}
	for _, provider := range f.providers {
		out.Providers = append(out.Providers, Aggregate(provider, out.Accounts[provider]))
	}
	return out
}

// filterTracked drops auth files for untracked providers and malformed
// entries before any probing happens.
func (f *Fetcher) filterTracked(files []AuthFile) []AuthFile {
	trackedSet := lo.SliceToMap(f.providers, func(p string) (string, struct{}) {
		return p, struct{}{}
	})

	out := make([]AuthFile, 0, len(files))
	for _, file := range files {
		if _, ok := trackedSet[file.Provider]; !ok {
			continue
		}
		if _, ok := f.adapters[file.Provider]; !ok {
			f.log.Debug("no adapter for tracked provider", zap.String("provider", file.Provider))
			continue
		}
		if file.Name == "" && file.Email == "" {
			f.log.Debug("skipping auth file without identity", zap.String("provider", file.Provider))
			continue
		}
		out = append(out, file)
	}
	return out
}

// probeConcurrent fans probes out over a bounded worker pool. Results are
// indexed so the output keeps auth-file order regardless of completion order.
func (f *Fetcher) probeConcurrent(ctx context.Context, files []AuthFile, now time.Time) []AccountRecord {
	if len(files) == 0 {
		return nil
	}

	results := make([]AccountRecord, len(files))
	parallelism := len(files)
	if parallelism > maxProbeParallelism {
		parallelism = maxProbeParallelism
	}

	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, file := range files {
		i := i
		file := file
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = f.adapters[file.Provider].Probe(ctx, f.client, file, now)
		}()
	}
	wg.Wait()
	return results
}
