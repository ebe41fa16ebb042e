package status

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestPlainModeEmitsPrefixedLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{Out: &buf, Width: 80})

	r.ItemStarted("clip.mp4", 3)
	r.StepStarted("clip.mp4", 0, "crop")
	r.Output("clip.mp4", "Input resolution: 1920x1080")
	r.StepFinished("clip.mp4", 0, "crop", true)
	r.ItemFinished("clip.mp4", true, "clip_final.mp4")

	out := buf.String()
	for _, want := range []string{
		"[clip.mp4] start",
		"[clip.mp4] step crop",
		"[clip.mp4] Input resolution: 1920x1080",
		"[clip.mp4] step crop done",
		"[clip.mp4] done  clip.mp4  (clip_final.mp4)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderShowsActiveRowsAndTally(t *testing.T) {
	r := NewReporter(Options{Dashboard: true, Out: &bytes.Buffer{}, Width: 120})
	r.SetTotal(3)

	r.ItemStarted("a.mp4", 3)
	r.StepStarted("a.mp4", 1, "scrub")
	r.Output("a.mp4", "Running separation")
	r.ItemStarted("b.mp4", 3)
	r.ItemFinished("b.mp4", false, "step crop: boom")

	view := r.Render()
	if !strings.Contains(view, "processing 1/3") {
		t.Fatalf("missing tally in view:\n%s", view)
	}
	if !strings.Contains(view, "failed 1") {
		t.Fatalf("missing failure count in view:\n%s", view)
	}
	if !strings.Contains(view, "[2/3] a.mp4  scrub") {
		t.Fatalf("missing active row in view:\n%s", view)
	}
	if !strings.Contains(view, "| Running separation") {
		t.Fatalf("missing last output line in view:\n%s", view)
	}
	if !strings.Contains(view, "fail  b.mp4") {
		t.Fatalf("missing finish event in view:\n%s", view)
	}
	if strings.Contains(view, "[1/3] b.mp4") {
		t.Fatalf("finished item must leave the active rows:\n%s", view)
	}
}

func TestTruncateToWidthNeverWraps(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := truncateToWidth(long, 40)
	if len([]rune(got)) > 40 {
		t.Fatalf("truncated line still too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if truncateToWidth("short", 40) != "short" {
		t.Fatalf("short lines must pass through untouched")
	}
}

func TestReporterIsSafeUnderConcurrentWriters(t *testing.T) {
	r := NewReporter(Options{Dashboard: true, Out: &bytes.Buffer{}, Width: 80})
	r.SetTotal(8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := string(rune('a'+n)) + ".mp4"
			r.ItemStarted(name, 3)
			for s := 0; s < 3; s++ {
				r.StepStarted(name, s, "step")
				r.Output(name, "line")
				r.StepFinished(name, s, "step", true)
			}
			r.ItemFinished(name, true, "")
		}(i)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				_ = r.Render()
			}
		}
	}()
	wg.Wait()
	close(done)

	view := r.Render()
	if !strings.Contains(view, "processing 8/8") {
		t.Fatalf("expected all items finished, got:\n%s", view)
	}
}
