// Package status aggregates live progress from concurrent pipeline workers
// into a single periodically redrawn view. It is purely observational:
// nothing here can block or fail a pipeline run.
package status

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type itemRow struct {
	name      string
	stepIndex int
	stepTotal int
	step      string
	last      string
	startedAt time.Time
}

// Reporter collects per-item, per-step events behind one mutex and redraws
// on its own tick. With the dashboard disabled it degrades to serialized
// prefixed log lines.
type Reporter struct {
	mu sync.Mutex

	out       io.Writer
	width     int
	interval  time.Duration
	dashboard bool

	total     int
	succeeded int
	failed    int
	rows      map[string]*itemRow
	order     []string
	events    []string

	stop    chan struct{}
	stopped bool
}

type Options struct {
	// Dashboard enables the full-screen redraw view; when false every
	// event becomes a plain prefixed log line.
	Dashboard bool
	Out       io.Writer
	Width     int
	Interval  time.Duration
}

func NewReporter(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Width <= 0 {
		opts.Width = 100
	}
	if opts.Interval <= 0 {
		opts.Interval = 700 * time.Millisecond
	}
	return &Reporter{
		out:       opts.Out,
		width:     opts.Width,
		interval:  opts.Interval,
		dashboard: opts.Dashboard,
		rows:      make(map[string]*itemRow),
		events:    make([]string, 0, 8),
		stop:      make(chan struct{}),
	}
}

// SetTotal fixes the batch size used by the overall progress bar.
func (r *Reporter) SetTotal(n int) {
	r.mu.Lock()
	r.total = n
	r.mu.Unlock()
}

func (r *Reporter) Start() {
	if !r.dashboard {
		return
	}
	go func() {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C:
				r.redraw()
			}
		}
	}()
}

func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	close(r.stop)
	if r.dashboard {
		r.redraw()
	}
}

func (r *Reporter) ItemStarted(name string, totalSteps int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[name] = &itemRow{
		name:      name,
		stepTotal: totalSteps,
		step:      "starting",
		startedAt: time.Now(),
	}
	r.order = append(r.order, name)
	r.logLocked(name, "start")
}

func (r *Reporter) StepStarted(name string, index int, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[name]; ok {
		row.stepIndex = index
		row.step = step
		row.last = ""
	}
	r.logLocked(name, fmt.Sprintf("step %s", step))
}

func (r *Reporter) StepFinished(name string, index int, step string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	verb := "done"
	if !ok {
		verb = "failed"
	}
	r.logLocked(name, fmt.Sprintf("step %s %s", step, verb))
}

func (r *Reporter) StepSkipped(name string, index int, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[name]; ok {
		row.stepIndex = index
	}
	r.logLocked(name, fmt.Sprintf("step %s already done, skipping", step))
}

func (r *Reporter) Output(name, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[name]; ok {
		row.last = line
	}
	r.logLocked(name, line)
}

func (r *Reporter) ItemFinished(name string, ok bool, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	verb := "done"
	if ok {
		r.succeeded++
	} else {
		r.failed++
		verb = "fail"
	}
	event := fmt.Sprintf("%s  %s", verb, name)
	if detail != "" {
		event += "  (" + detail + ")"
	}
	r.events = append([]string{event}, r.events...)
	if len(r.events) > 8 {
		r.events = r.events[:8]
	}
	r.logLocked(name, event)
}

// logLocked emits a prefixed line in plain mode; the dashboard consumes the
// same state via the ticker instead. Callers hold r.mu.
func (r *Reporter) logLocked(name, line string) {
	if r.dashboard {
		return
	}
	fmt.Fprintf(r.out, " [%s] %s\n", name, line)
}

func (r *Reporter) redraw() {
	fmt.Fprint(r.out, "\033[H\033[2J"+r.Render())
}
