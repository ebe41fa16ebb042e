package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"shorts-factory/internal/platform"
	"shorts-factory/internal/publish"
	"shorts-factory/internal/store"
)

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	file := fs.String("file", "", "finalized video to publish (must be a *_final.* artifact)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	var skip stringList
	fs.Var(&skip, "skip-target", "publishing target to skip (repeatable): instagram|tiktok|youtube")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		fs.Usage()
		return errors.New("--file is required")
	}
	item, err := itemForFinal(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("finalized video: %w", err)
	}

	skipSet := skip.toSet()
	targets, err := buildTargets(skipSet)
	if err != nil {
		return err
	}

	cp, err := store.Open(item)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	orch := &publish.Orchestrator{
		Targets: targets,
		Logf: func(format string, args ...any) {
			if !*jsonOut {
				fmt.Printf(" "+format+"\n", args...)
			}
		},
	}
	caption := platform.CaptionFromFilename(path)
	outcomes, ok := orch.Publish(ctx, cp, path, caption, skipSet)
	if ok {
		if err := cp.MarkDone(); err != nil {
			return err
		}
	} else if err := cp.MarkFailed(); err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(uploadSummary(outcomes, ok))
	}
	for _, name := range sortedTargetNames(outcomes) {
		o := outcomes[name]
		switch {
		case o.Skipped:
			fmt.Printf("%s: skipped\n", name)
		case o.Resumed:
			fmt.Printf("%s: already published\n", name)
		case o.Done:
			fmt.Printf("%s: published (%d attempts)\n", name, o.Attempts)
		default:
			fmt.Printf("%s: failed: %v\n", name, o.Err)
		}
	}
	if !ok {
		return errors.New("one or more targets failed")
	}
	return nil
}

// itemForFinal maps a finalized artifact path back to its source item, so
// publish outcomes land in the same sidecar the pipeline writes.
func itemForFinal(path string) (store.Item, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	marker := "_" + store.FinalSuffix
	if !strings.HasSuffix(stem, marker) {
		return store.Item{}, fmt.Errorf("%s is not a finalized artifact (expected a *%s%s name); run process first", base, marker, ext)
	}
	source := filepath.Join(filepath.Dir(path), strings.TrimSuffix(stem, marker)+ext)
	return store.NewItem(source), nil
}

type uploadTargetOut struct {
	Target   string `json:"target"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

type uploadSummaryOut struct {
	OK      bool              `json:"ok"`
	Targets []uploadTargetOut `json:"targets"`
}

func uploadSummary(outcomes map[string]publish.Outcome, ok bool) uploadSummaryOut {
	out := uploadSummaryOut{OK: ok}
	for _, name := range sortedTargetNames(outcomes) {
		o := outcomes[name]
		row := uploadTargetOut{Target: name, Attempts: o.Attempts}
		switch {
		case o.Skipped:
			row.Status = "skipped"
		case o.Done:
			row.Status = "done"
		default:
			row.Status = "failed"
			if o.Err != nil {
				row.Error = o.Err.Error()
			}
		}
		out.Targets = append(out.Targets, row)
	}
	return out
}

func sortedTargetNames(outcomes map[string]publish.Outcome) []string {
	names := make([]string, 0, len(outcomes))
	for n := range outcomes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
