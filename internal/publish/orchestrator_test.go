package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shorts-factory/internal/model"
	"shorts-factory/internal/platform"
	"shorts-factory/internal/store"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
}

func openCheckpoints(t *testing.T) *store.Checkpoints {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cp, err := store.Open(store.NewItem(src))
	if err != nil {
		t.Fatal(err)
	}
	return cp
}

func okTarget(name string) Target {
	return Target{
		Name:    name,
		Publish: func(context.Context, string, string) error { return nil },
	}
}

func failTarget(name string, err error) Target {
	return Target{
		Name:    name,
		Publish: func(context.Context, string, string) error { return err },
	}
}

func TestPublishIsolatesTargetFailures(t *testing.T) {
	cp := openCheckpoints(t)
	o := &Orchestrator{
		Targets: []Target{
			okTarget("a"),
			failTarget("b", &platform.PublishError{Target: "b", Op: "upload", Err: errors.New("boom")}),
			okTarget("c"),
		},
		Clock: newFakeClock(),
	}

	results, ok := o.Publish(context.Background(), cp, "clip_final.mp4", "cap", nil)
	if ok {
		t.Fatalf("expected overall failure")
	}
	if !results["a"].Done || !results["c"].Done {
		t.Fatalf("sibling targets must complete despite b failing: %+v", results)
	}
	if results["b"].Done || results["b"].Err == nil {
		t.Fatalf("expected b to fail: %+v", results["b"])
	}

	doc := cp.Snapshot()
	if doc.Targets["a"].Status != model.StatusDone || doc.Targets["c"].Status != model.StatusDone {
		t.Fatalf("done targets not recorded: %+v", doc.Targets)
	}
	if doc.Targets["b"].Status != model.StatusFailed || doc.Targets["b"].Error == "" {
		t.Fatalf("failed target not recorded with reason: %+v", doc.Targets["b"])
	}
}

func TestPublishResumeRetriesOnlyFailedTargets(t *testing.T) {
	cp := openCheckpoints(t)

	var aCalls, bCalls int
	first := &Orchestrator{
		Targets: []Target{
			{Name: "a", Publish: func(context.Context, string, string) error { aCalls++; return nil }},
			{Name: "b", Publish: func(context.Context, string, string) error {
				bCalls++
				return &platform.PublishError{Target: "b", Op: "upload", Err: errors.New("boom")}
			}},
		},
		Clock: newFakeClock(),
	}
	if _, ok := first.Publish(context.Background(), cp, "f", "", nil); ok {
		t.Fatalf("first run should fail")
	}

	second := &Orchestrator{
		Targets: []Target{
			{Name: "a", Publish: func(context.Context, string, string) error { aCalls++; return nil }},
			{Name: "b", Publish: func(context.Context, string, string) error { bCalls++; return nil }},
		},
		Clock: newFakeClock(),
	}
	results, ok := second.Publish(context.Background(), cp, "f", "", nil)
	if !ok {
		t.Fatalf("second run should succeed: %+v", results)
	}
	if aCalls != 1 {
		t.Fatalf("target a must not be re-published, called %d times", aCalls)
	}
	if bCalls != 2 {
		t.Fatalf("target b should be retried exactly once more, called %d times", bCalls)
	}
	if !results["a"].Resumed {
		t.Fatalf("expected a to be marked resumed: %+v", results["a"])
	}
}

func TestPublishSkipSetExcludedFromSuccessCriteria(t *testing.T) {
	cp := openCheckpoints(t)
	o := &Orchestrator{
		Targets: []Target{
			okTarget("a"),
			failTarget("b", errors.New("would fail")),
		},
		Clock: newFakeClock(),
	}

	results, ok := o.Publish(context.Background(), cp, "f", "", map[string]bool{"b": true})
	if !ok {
		t.Fatalf("skipped target must not count against success: %+v", results)
	}
	if !results["b"].Skipped {
		t.Fatalf("expected b to be skipped")
	}
	if _, recorded := cp.Snapshot().Targets["b"]; recorded {
		t.Fatalf("skipped target must not be touched in the sidecar")
	}
}

func TestPublishRateLimitBackoff(t *testing.T) {
	cp := openCheckpoints(t)
	clock := newFakeClock()

	calls := 0
	o := &Orchestrator{
		Targets: []Target{{
			Name: "x",
			Publish: func(context.Context, string, string) error {
				calls++
				if calls <= 2 {
					return &platform.RateLimitError{Target: "x", Detail: "slow down"}
				}
				return nil
			},
		}},
		RetryCap: 5,
		Backoff:  time.Minute,
		Clock:    clock,
	}

	results, ok := o.Publish(context.Background(), cp, "f", "", nil)
	if !ok || !results["x"].Done {
		t.Fatalf("expected success after rate-limit retries: %+v", results)
	}
	if len(clock.sleeps) != 2 {
		t.Fatalf("expected exactly 2 backoff delays, got %v", clock.sleeps)
	}
	if clock.sleeps[0] != time.Minute || clock.sleeps[1] != 2*time.Minute {
		t.Fatalf("expected linear backoff 1m,2m got %v", clock.sleeps)
	}
	if results["x"].Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", results["x"].Attempts)
	}
}

func TestPublishRateLimitCapBecomesTerminalFailure(t *testing.T) {
	cp := openCheckpoints(t)
	clock := newFakeClock()

	o := &Orchestrator{
		Targets:  []Target{failTarget("x", &platform.RateLimitError{Target: "x", Detail: "slow down"})},
		RetryCap: 2,
		Backoff:  time.Minute,
		Clock:    clock,
	}

	_, ok := o.Publish(context.Background(), cp, "f", "", nil)
	if ok {
		t.Fatalf("expected failure after exceeding retry cap")
	}
	if len(clock.sleeps) != 2 {
		t.Fatalf("expected 2 backoff delays before giving up, got %v", clock.sleeps)
	}
	rec := cp.Snapshot().Targets["x"]
	if rec.Status != model.StatusFailed || !strings.Contains(rec.Error, "rate limited") {
		t.Fatalf("expected rate-limit failure reason, got %+v", rec)
	}
}

func TestPublishPrecheckFailureSkipsNetworkCall(t *testing.T) {
	cp := openCheckpoints(t)

	called := false
	o := &Orchestrator{
		Targets: []Target{{
			Name: "instagram",
			Precheck: func(context.Context) error {
				return &platform.ReachabilityError{Service: "tunnel", Err: errors.New("no route")}
			},
			Publish: func(context.Context, string, string) error {
				called = true
				return nil
			},
		}},
		Clock: newFakeClock(),
	}

	results, ok := o.Publish(context.Background(), cp, "f", "", nil)
	if ok {
		t.Fatalf("expected failure from precheck")
	}
	if called {
		t.Fatalf("publish must not be attempted when the precheck fails")
	}
	var re *platform.ReachabilityError
	if !errors.As(results["instagram"].Err, &re) {
		t.Fatalf("expected ReachabilityError, got %v", results["instagram"].Err)
	}
	rec := cp.Snapshot().Targets["instagram"]
	if rec.Status != model.StatusFailed || !strings.Contains(rec.Error, "not reachable") {
		t.Fatalf("expected distinguishing reachability reason, got %+v", rec)
	}
}

func TestPublishRunsTargetsConcurrently(t *testing.T) {
	cp := openCheckpoints(t)

	var mu sync.Mutex
	running, peak := 0, 0
	gate := make(chan struct{})

	target := func(name string) Target {
		return Target{Name: name, Publish: func(context.Context, string, string) error {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			if running == 3 {
				close(gate)
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		}}
	}

	o := &Orchestrator{
		Targets: []Target{target("a"), target("b"), target("c")},
		Clock:   newFakeClock(),
	}
	if _, ok := o.Publish(context.Background(), cp, "f", "", nil); !ok {
		t.Fatalf("expected success")
	}
	if peak != 3 {
		t.Fatalf("expected all 3 targets in flight together, peak was %d", peak)
	}
}
