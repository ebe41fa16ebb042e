package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shorts-factory/internal/model"
)

// Checkpoints owns the durable state for one item: its stable artifacts on
// disk plus the sidecar status document. One Checkpoints instance has
// exclusive ownership of its item's step sequence; only publish-target
// workers of the same item touch it concurrently, which is why every
// mutation is serialized behind mu and persisted with a full-document
// atomic replace.
type Checkpoints struct {
	item Item

	mu  sync.Mutex
	doc model.Sidecar
}

// Open loads the item's sidecar, or initializes one on first touch, and
// marks the item in_progress. Stale in-flight artifacts from a crashed run
// are purged before any resume decision is made.
func Open(item Item) (*Checkpoints, error) {
	c := &Checkpoints{item: item}

	if _, err := c.purgeInFlightLocked(); err != nil {
		return nil, err
	}

	path := item.SidecarPath()
	if err := ReadJSON(path, &c.doc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c.doc = model.NewSidecar(item.Name())
		c.doc.StartedAt = nowStamp()
	} else {
		if c.doc.Steps == nil {
			c.doc.Steps = map[string]model.StepRecord{}
		}
		if c.doc.Targets == nil {
			c.doc.Targets = map[string]model.TargetRecord{}
		}
		c.doc.Status = model.StatusInProgress
		c.doc.CompletedAt = ""
	}
	if err := c.persistLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Checkpoints) Item() Item {
	return c.item
}

// HasStep reports whether the step's stable artifact exists. The filesystem
// is authoritative here, independent of the sidecar record.
func (c *Checkpoints) HasStep(suffix string) bool {
	info, err := os.Stat(c.item.StablePath(suffix))
	return err == nil && info.Mode().IsRegular()
}

// StepHandle binds one step execution to a fresh in-flight artifact path.
// Exactly one of Succeed or Fail must be called.
type StepHandle struct {
	c        *Checkpoints
	name     string
	suffix   string
	inFlight string
	started  time.Time
}

// BeginStep records the step as in_progress and returns a handle bound to a
// fresh in-flight output path.
func (c *Checkpoints) BeginStep(name, suffix string) (*StepHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.doc.Steps[name]
	if rec.Status == model.StatusDone {
		// The stable artifact is gone or the caller would not be here;
		// the filesystem outranks the record, so the step runs again.
		rec = model.StepRecord{}
	}
	if err := model.TransitionStep(&rec, model.StatusInProgress); err != nil {
		return nil, fmt.Errorf("begin step %s: %w", name, err)
	}
	started := time.Now()
	rec.StartedAt = started.UTC().Format(time.RFC3339)
	rec.CompletedAt = ""
	rec.Error = ""
	c.doc.Steps[name] = rec
	if err := c.persistLocked(); err != nil {
		return nil, err
	}

	return &StepHandle{
		c:        c,
		name:     name,
		suffix:   suffix,
		inFlight: c.item.InFlightPath(suffix),
		started:  started,
	}, nil
}

// InFlightPath is the temporary output path the step must write to.
func (h *StepHandle) InFlightPath() string {
	return h.inFlight
}

// Succeed promotes the in-flight artifact to the stable path atomically and
// records the step done. Returns the stable path.
func (h *StepHandle) Succeed() (string, error) {
	stable := h.c.item.StablePath(h.suffix)
	if err := os.Rename(h.inFlight, stable); err != nil {
		return "", fmt.Errorf("promote step %s artifact: %w", h.name, err)
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	rec := h.c.doc.Steps[h.name]
	if err := model.TransitionStep(&rec, model.StatusDone); err != nil {
		return "", fmt.Errorf("finish step %s: %w", h.name, err)
	}
	rec.CompletedAt = nowStamp()
	rec.DurationSeconds = time.Since(h.started).Seconds()
	rec.Output = filepath.Base(stable)
	h.c.doc.Steps[h.name] = rec
	if err := h.c.persistLocked(); err != nil {
		return "", err
	}
	return stable, nil
}

// Fail deletes the in-flight artifact, if the step got far enough to create
// one, and records the step failed with the error text.
func (h *StepHandle) Fail(stepErr error) error {
	if err := os.Remove(h.inFlight); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard in-flight artifact for step %s: %w", h.name, err)
	}

	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	rec := h.c.doc.Steps[h.name]
	if err := model.TransitionStep(&rec, model.StatusFailed); err != nil {
		return fmt.Errorf("fail step %s: %w", h.name, err)
	}
	rec.CompletedAt = nowStamp()
	rec.DurationSeconds = time.Since(h.started).Seconds()
	if stepErr != nil {
		rec.Error = truncate(stepErr.Error(), 1200)
	}
	h.c.doc.Steps[h.name] = rec
	return h.c.persistLocked()
}

// TargetDone reports whether a publish target already succeeded on a prior
// run; done targets are skipped on resume.
func (c *Checkpoints) TargetDone(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Targets[name].Status == model.StatusDone
}

// BeginTarget records a publish target as in_progress.
func (c *Checkpoints) BeginTarget(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.doc.Targets[name]
	if err := model.TransitionTarget(&rec, model.StatusInProgress); err != nil {
		return fmt.Errorf("begin target %s: %w", name, err)
	}
	rec.Error = ""
	c.doc.Targets[name] = rec
	return c.persistLocked()
}

// FinishTarget records a publish target's outcome. A nil targetErr marks the
// target done (terminal); otherwise failed with the error text, eligible for
// retry on the next run.
func (c *Checkpoints) FinishTarget(name string, attempts int, targetErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.doc.Targets[name]
	rec.Attempts = attempts
	if targetErr == nil {
		if err := model.TransitionTarget(&rec, model.StatusDone); err != nil {
			return fmt.Errorf("finish target %s: %w", name, err)
		}
		rec.CompletedAt = nowStamp()
		rec.Error = ""
	} else {
		if err := model.TransitionTarget(&rec, model.StatusFailed); err != nil {
			return fmt.Errorf("finish target %s: %w", name, err)
		}
		rec.Error = truncate(targetErr.Error(), 1200)
	}
	c.doc.Targets[name] = rec
	return c.persistLocked()
}

// MarkDone records the item fully succeeded. Call only after every step and
// every non-skipped target is done.
func (c *Checkpoints) MarkDone() error {
	return c.markItem(model.StatusDone)
}

// MarkFailed records the item failed for this run; a later run resumes it.
func (c *Checkpoints) MarkFailed() error {
	return c.markItem(model.StatusFailed)
}

func (c *Checkpoints) markItem(status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc.Status = status
	c.doc.CompletedAt = nowStamp()
	return c.persistLocked()
}

// Snapshot returns a deep copy of the sidecar document for inspection.
func (c *Checkpoints) Snapshot() model.Sidecar {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := c.doc
	doc.Steps = make(map[string]model.StepRecord, len(c.doc.Steps))
	for k, v := range c.doc.Steps {
		doc.Steps[k] = v
	}
	doc.Targets = make(map[string]model.TargetRecord, len(c.doc.Targets))
	for k, v := range c.doc.Targets {
		doc.Targets[k] = v
	}
	return doc
}

// Archive retires a fully succeeded item: source, final artifact, and
// sidecar move into processed/ and intermediate stable artifacts are
// deleted. This is the item's terminal event.
func (c *Checkpoints) Archive() error {
	dest := c.item.ProcessedDir()
	if err := Mkdir(dest); err != nil {
		return err
	}

	for _, suffix := range stableSuffixes {
		if suffix == FinalSuffix {
			continue
		}
		if err := os.Remove(c.item.StablePath(suffix)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove intermediate artifact %s: %w", c.item.StablePath(suffix), err)
		}
	}

	moves := []string{c.item.FinalPath(), c.item.Source, c.item.SidecarPath()}
	for _, src := range moves {
		if err := os.Rename(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return fmt.Errorf("archive %s: %w", src, err)
		}
	}
	return nil
}

// PurgeInFlight removes any in-flight remnants for this item and returns
// how many were deleted.
func (c *Checkpoints) PurgeInFlight() (int, error) {
	return c.purgeInFlightLocked()
}

func (c *Checkpoints) purgeInFlightLocked() (int, error) {
	entries, err := os.ReadDir(c.item.dir)
	if err != nil {
		return 0, fmt.Errorf("scan %s for in-flight remnants: %w", c.item.dir, err)
	}
	removed := 0
	prefix := c.item.base + "_"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !IsInFlightName(name) {
			continue
		}
		if err := os.Remove(filepath.Join(c.item.dir, name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove stale in-flight file %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// PurgeWorkspace deletes every orphaned in-flight file in a workspace,
// returning the removed file names. Interrupted writes are never reusable;
// removing them lets the next run fall through to a clean retry.
func PurgeWorkspace(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", dir, err)
	}
	var removed []string
	for _, e := range entries {
		if e.IsDir() || !IsInFlightName(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove stale in-flight file %s: %w", e.Name(), err)
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}

func (c *Checkpoints) persistLocked() error {
	return WriteJSON(c.item.SidecarPath(), c.doc)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
