// Package publish fans a finalized artifact out to independent publishing
// targets. Targets run fully in parallel; one target's failure never
// cancels or delays a sibling.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shorts-factory/internal/platform"
	"shorts-factory/internal/store"
)

// Target is one publishing destination. Publish encapsulates the platform's
// own auth, upload, and polling; Precheck, when set, gates the target on a
// cheap reachability probe before any network spend.
type Target struct {
	Name     string
	Publish  func(ctx context.Context, path, caption string) error
	Precheck func(ctx context.Context) error
}

// Outcome is the per-target result of one orchestrator run.
type Outcome struct {
	Done     bool
	Skipped  bool
	Resumed  bool
	Attempts int
	Err      error
}

// Orchestrator runs every configured target concurrently against one item,
// recording per-target results into the item's checkpoint sidecar.
type Orchestrator struct {
	Targets []Target

	// RetryCap bounds rate-limit retries per target per run; Backoff is
	// the linear base delay (attempt n waits n*Backoff).
	RetryCap int
	Backoff  time.Duration

	Clock platform.Clock
	Logf  func(format string, args ...any)
}

const (
	defaultRetryCap = 5
	defaultBackoff  = 60 * time.Second
)

// Publish fans out to every target not in skip and not already done in the
// sidecar. All workers are joined before return. The boolean result is true
// iff every non-skipped target ended done.
func (o *Orchestrator) Publish(ctx context.Context, cp *store.Checkpoints, finalPath, caption string, skip map[string]bool) (map[string]Outcome, bool) {
	retryCap := o.RetryCap
	if retryCap <= 0 {
		retryCap = defaultRetryCap
	}
	backoff := o.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	clock := o.Clock
	if clock == nil {
		clock = platform.SystemClock
	}
	logf := o.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	results := make(map[string]Outcome, len(o.Targets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, t := range o.Targets {
		if skip[t.Name] {
			logf("skipping %s (excluded for this run)", t.Name)
			mu.Lock()
			results[t.Name] = Outcome{Skipped: true}
			mu.Unlock()
			continue
		}
		if cp.TargetDone(t.Name) {
			logf("skipping %s (already published)", t.Name)
			mu.Lock()
			results[t.Name] = Outcome{Done: true, Resumed: true}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			outcome := o.runTarget(ctx, t, cp, finalPath, caption, retryCap, backoff, clock, logf)
			mu.Lock()
			results[t.Name] = outcome
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	ok := true
	for name, outcome := range results {
		if outcome.Skipped {
			continue
		}
		if !outcome.Done {
			ok = false
			logf("publish failed for %s: %v", name, outcome.Err)
		}
	}
	return results, ok
}

func (o *Orchestrator) runTarget(ctx context.Context, t Target, cp *store.Checkpoints, finalPath, caption string, retryCap int, backoff time.Duration, clock platform.Clock, logf func(string, ...any)) Outcome {
	if err := cp.BeginTarget(t.Name); err != nil {
		return Outcome{Err: err}
	}
	logf("uploading to %s ...", t.Name)

	attempts := 0
	var err error
	if t.Precheck != nil {
		if preErr := t.Precheck(ctx); preErr != nil {
			// Recorded failed with the reachability reason; the
			// platform call is never attempted.
			err = preErr
		}
	}
	if err == nil {
		attempts, err = o.attempt(ctx, t, finalPath, caption, retryCap, backoff, clock, logf)
	}

	if recErr := cp.FinishTarget(t.Name, attempts, err); recErr != nil {
		if err == nil {
			err = recErr
		} else {
			err = fmt.Errorf("%w (and recording outcome failed: %v)", err, recErr)
		}
	}
	if err != nil {
		logf("%s: %v", t.Name, err)
		return Outcome{Attempts: attempts, Err: err}
	}
	logf("%s: done", t.Name)
	return Outcome{Done: true, Attempts: attempts}
}

// attempt invokes the target, retrying rate-limited failures with linear
// backoff until the cap; any other error is terminal for this run.
func (o *Orchestrator) attempt(ctx context.Context, t Target, finalPath, caption string, retryCap int, backoff time.Duration, clock platform.Clock, logf func(string, ...any)) (int, error) {
	attempts := 0
	for {
		attempts++
		err := t.Publish(ctx, finalPath, caption)
		if err == nil {
			return attempts, nil
		}

		var rl *platform.RateLimitError
		if !errors.As(err, &rl) {
			return attempts, err
		}
		retries := attempts // retries so far equals completed attempts
		if retries > retryCap {
			return attempts, fmt.Errorf("rate limited %d times, giving up: %w", retries, err)
		}
		wait := time.Duration(retries) * backoff
		logf("%s rate limited, waiting %s before retry (%d/%d)", t.Name, wait, retries, retryCap)
		clock.Sleep(wait)
	}
}
