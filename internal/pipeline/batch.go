package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"shorts-factory/internal/store"
)

const defaultWorkers = 3

// BatchOptions bounds one batch run.
type BatchOptions struct {
	// Workers caps how many items transform concurrently.
	Workers int
	// Limit, when positive, caps how many discovered items this run takes.
	Limit int
}

// BatchResult tallies a batch run. Failures keeps the per-item detail for
// the end-of-run summary.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []ItemResult
}

// ProcessBatch locks the workspace, sweeps stale in-flight files, discovers
// source videos, and runs them through the pipeline under a bounded worker
// pool. Item failures are tallied, never fatal to the batch.
func (c *Coordinator) ProcessBatch(ctx context.Context, dir string, opts BatchOptions) (BatchResult, error) {
	lock, err := store.AcquireWorkspaceLock(dir)
	if err != nil {
		return BatchResult{}, err
	}
	defer lock.Release()

	if _, err := store.PurgeWorkspace(dir); err != nil {
		return BatchResult{}, fmt.Errorf("sweep stale artifacts: %w", err)
	}

	items, err := Discover(dir)
	if err != nil {
		return BatchResult{}, err
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	rep := c.Reporter
	if rep == nil {
		rep = NopReporter{}
	}
	rep.SetTotal(len(items))
	for _, name := range Resumable(items) {
		rep.Output(name, "existing checkpoints found, resuming")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu      sync.Mutex
		results []ItemResult
	)
	g := &errgroup.Group{}
	g.SetLimit(workers)
	for _, item := range items {
		item := item
		g.Go(func() error {
			res := c.ProcessItem(ctx, item)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := BatchResult{Total: len(items)}
	for _, res := range results {
		if res.OK {
			out.Succeeded++
			continue
		}
		out.Failed++
		out.Failures = append(out.Failures, res)
	}
	return out, nil
}
