package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"shorts-factory/internal/ffmpeg"
	"shorts-factory/internal/pipeline"
	"shorts-factory/internal/publish"
	"shorts-factory/internal/status"
	"shorts-factory/internal/store"
)

// process runs the full pipeline for one source video.
func runProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	keepVoice := fs.Bool("keep-voice", false, "keep commentary audio; skip voice separation")
	noPublish := fs.Bool("no-publish", false, "stop after transforms; leave the finalized video in place")
	progress := fs.Bool("progress", true, "show live progress dashboard")
	jsonOut := fs.Bool("json", false, "print JSON output")
	var skip stringList
	fs.Var(&skip, "skip-target", "publishing target to skip (repeatable): instagram|tiktok|youtube")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		fs.Usage()
		return errors.New("a source video path is required: process [flags] <video>")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("source video: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory; use run for batch processing", path)
	}
	if store.IsDerivedName(info.Name()) {
		return fmt.Errorf("%s is a pipeline artifact, not a source video", info.Name())
	}

	steps := pipeline.DefaultSteps()
	if *keepVoice {
		steps = pipeline.StepsKeepingVoice()
	}
	if err := ffmpeg.CheckDependencies(pipeline.NeedsVoiceScrub(steps)); err != nil {
		return err
	}

	skipSet := skip.toSet()
	var orch *publish.Orchestrator
	if !*noPublish {
		targets, err := buildTargets(skipSet)
		if err != nil {
			return err
		}
		orch = &publish.Orchestrator{Targets: targets}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep := status.NewReporter(status.Options{Dashboard: *progress && !*jsonOut && stdoutIsTTY()})
	rep.SetTotal(1)
	rep.Start()
	defer rep.Stop()

	c := &pipeline.Coordinator{
		Steps:       steps,
		Publisher:   orch,
		SkipTargets: skipSet,
		Reporter:    rep,
	}
	res := c.ProcessItem(ctx, store.NewItem(path))
	rep.Stop()

	if *jsonOut {
		return printJSON(struct {
			Name   string   `json:"name"`
			OK     bool     `json:"ok"`
			Detail string   `json:"detail"`
			Logs   []string `json:"logs,omitempty"`
		}{res.Name, res.OK, res.Detail, res.Logs})
	}
	if !res.OK {
		for _, line := range res.Logs {
			fmt.Printf("  %s\n", line)
		}
		return fmt.Errorf("%s: %s", res.Name, res.Detail)
	}
	fmt.Printf("%s: %s\n", res.Name, res.Detail)
	return nil
}
