// Package pipeline drives one video through the transform chain and out to
// the publishing targets, checkpointing every step so an interrupted run
// resumes exactly where it stopped.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"shorts-factory/internal/platform"
	"shorts-factory/internal/publish"
	"shorts-factory/internal/store"
)

// Coordinator processes items: transforms in sequence, then publish fan-out,
// then archival. A nil Publisher stops the pipeline after the last transform
// and leaves the item in the workspace.
type Coordinator struct {
	Steps       []Step
	Publisher   *publish.Orchestrator
	SkipTargets map[string]bool
	Reporter    Reporter
}

// ItemResult summarizes one item for the batch tally. Logs holds the tail
// of the item's output for the failure report.
type ItemResult struct {
	Name   string
	OK     bool
	Detail string
	Logs   []string
}

const maxCapturedLogLines = 20

// captureReporter tees per-item output lines into a bounded tail while
// forwarding every event to the real reporter.
type captureReporter struct {
	Reporter

	mu    sync.Mutex
	lines []string
}

func (c *captureReporter) Output(name, line string) {
	c.mu.Lock()
	if len(c.lines) == maxCapturedLogLines {
		copy(c.lines, c.lines[1:])
		c.lines = c.lines[:maxCapturedLogLines-1]
	}
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.Reporter.Output(name, line)
}

func (c *captureReporter) tail() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// ProcessItem runs the full pipeline for one source video. Completed steps
// and published targets recorded in the sidecar are skipped; the first step
// failure aborts the item without touching later steps.
func (c *Coordinator) ProcessItem(ctx context.Context, item store.Item) ItemResult {
	base := c.Reporter
	if base == nil {
		base = NopReporter{}
	}
	rep := &captureReporter{Reporter: base}
	steps := c.Steps
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	name := item.Name()
	rep.ItemStarted(name, len(steps))

	cp, err := store.Open(item)
	if err != nil {
		return c.finish(rep, name, false, fmt.Sprintf("open checkpoints: %v", err))
	}

	input := item.Source
	for i, step := range steps {
		if cp.HasStep(step.Suffix) {
			rep.StepSkipped(name, i, step.Name)
			input = item.StablePath(step.Suffix)
			continue
		}
		output, err := runStep(ctx, cp, step, i, rep, input)
		if err != nil {
			if markErr := cp.MarkFailed(); markErr != nil {
				rep.Output(name, fmt.Sprintf("record failure: %v", markErr))
			}
			return c.finish(rep, name, false, err.Error())
		}
		input = output
	}
	finalPath := input

	if c.Publisher == nil {
		return c.finish(rep, name, true, "transforms complete, publishing skipped")
	}

	// Per-item copy so publish logs land on this item's row.
	orch := *c.Publisher
	orch.Logf = func(format string, args ...any) {
		rep.Output(name, fmt.Sprintf(format, args...))
	}
	caption := platform.CaptionFromFilename(finalPath)
	outcomes, ok := orch.Publish(ctx, cp, finalPath, caption, c.SkipTargets)
	if !ok {
		if markErr := cp.MarkFailed(); markErr != nil {
			rep.Output(name, fmt.Sprintf("record failure: %v", markErr))
		}
		return c.finish(rep, name, false, summarizeOutcomes(outcomes))
	}

	if err := cp.MarkDone(); err != nil {
		return c.finish(rep, name, false, fmt.Sprintf("record completion: %v", err))
	}
	if err := cp.Archive(); err != nil {
		return c.finish(rep, name, false, fmt.Sprintf("archive: %v", err))
	}
	return c.finish(rep, name, true, summarizeOutcomes(outcomes))
}

func (c *Coordinator) finish(rep *captureReporter, name string, ok bool, detail string) ItemResult {
	rep.ItemFinished(name, ok, detail)
	res := ItemResult{Name: name, OK: ok, Detail: detail}
	if !ok {
		res.Logs = rep.tail()
	}
	return res
}

// summarizeOutcomes flattens per-target results into one human-readable
// line, failures first.
func summarizeOutcomes(outcomes map[string]publish.Outcome) string {
	names := make([]string, 0, len(outcomes))
	for n := range outcomes {
		names = append(names, n)
	}
	sort.Strings(names)

	var failed, done, skipped []string
	for _, n := range names {
		o := outcomes[n]
		switch {
		case o.Err != nil:
			failed = append(failed, fmt.Sprintf("%s: %v", n, o.Err))
		case o.Skipped:
			skipped = append(skipped, n)
		case o.Done:
			done = append(done, n)
		}
	}

	var parts []string
	if len(failed) > 0 {
		parts = append(parts, "failed "+strings.Join(failed, "; "))
	}
	if len(done) > 0 {
		parts = append(parts, "published "+strings.Join(done, ", "))
	}
	if len(skipped) > 0 {
		parts = append(parts, "skipped "+strings.Join(skipped, ", "))
	}
	if len(parts) == 0 {
		return "no targets configured"
	}
	return strings.Join(parts, "; ")
}
