package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"shorts-factory/internal/ffmpeg"
	"shorts-factory/internal/pipeline"
	"shorts-factory/internal/publish"
	"shorts-factory/internal/status"
)

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	dir := fs.String("dir", ".", "workspace directory with source videos")
	workers := fs.Int("workers", 3, "number of parallel video workers")
	limit := fs.Int("limit", 0, "max videos to take this invocation (0 = no limit)")
	keepVoice := fs.Bool("keep-voice", false, "keep commentary audio; skip voice separation")
	noPublish := fs.Bool("no-publish", false, "stop after transforms; leave finalized videos in the workspace")
	progress := fs.Bool("progress", true, "show live progress dashboard")
	jsonOut := fs.Bool("json", false, "print JSON summary")
	var skip stringList
	fs.Var(&skip, "skip-target", "publishing target to skip (repeatable): instagram|tiktok|youtube")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	target := *dir
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	return runBatch(batchConfig{
		dir:       target,
		workers:   *workers,
		limit:     *limit,
		keepVoice: *keepVoice,
		noPublish: *noPublish,
		progress:  *progress,
		jsonOut:   *jsonOut,
		skip:      skip.toSet(),
	})
}

type batchConfig struct {
	dir       string
	workers   int
	limit     int
	keepVoice bool
	noPublish bool
	progress  bool
	jsonOut   bool
	skip      map[string]bool
}

func runBatch(cfg batchConfig) error {
	steps := pipeline.DefaultSteps()
	if cfg.keepVoice {
		steps = pipeline.StepsKeepingVoice()
	}
	if err := ffmpeg.CheckDependencies(pipeline.NeedsVoiceScrub(steps)); err != nil {
		return err
	}

	var orch *publish.Orchestrator
	if !cfg.noPublish {
		targets, err := buildTargets(cfg.skip)
		if err != nil {
			return err
		}
		orch = &publish.Orchestrator{Targets: targets}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep := status.NewReporter(status.Options{Dashboard: cfg.progress && !cfg.jsonOut && stdoutIsTTY()})
	rep.Start()
	defer rep.Stop()

	c := &pipeline.Coordinator{
		Steps:       steps,
		Publisher:   orch,
		SkipTargets: cfg.skip,
		Reporter:    rep,
	}
	res, err := c.ProcessBatch(ctx, cfg.dir, pipeline.BatchOptions{Workers: cfg.workers, Limit: cfg.limit})
	rep.Stop()
	if err != nil {
		return err
	}

	if cfg.jsonOut {
		return printJSON(batchSummary(res))
	}
	fmt.Printf("processed %d videos: %d succeeded, %d failed\n", res.Total, res.Succeeded, res.Failed)
	for _, f := range res.Failures {
		fmt.Printf("  %s: %s\n", f.Name, f.Detail)
		for _, line := range f.Logs {
			fmt.Printf("    %s\n", line)
		}
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d videos failed", res.Failed, res.Total)
	}
	return nil
}

type batchSummaryOut struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Failures  []itemFailureOut `json:"failures,omitempty"`
}

type itemFailureOut struct {
	Name   string   `json:"name"`
	Detail string   `json:"detail"`
	Logs   []string `json:"logs,omitempty"`
}

func batchSummary(res pipeline.BatchResult) batchSummaryOut {
	out := batchSummaryOut{Total: res.Total, Succeeded: res.Succeeded, Failed: res.Failed}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, itemFailureOut{Name: f.Name, Detail: f.Detail, Logs: f.Logs})
	}
	return out
}
