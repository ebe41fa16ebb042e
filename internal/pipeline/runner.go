package pipeline

import (
	"context"
	"fmt"

	"shorts-factory/internal/ffmpeg"
	"shorts-factory/internal/store"
)

// runStep executes one transform against its in-flight output path and
// promotes or discards the artifact through the checkpoint handle. Returns
// the stable output path on success.
func runStep(ctx context.Context, cp *store.Checkpoints, step Step, index int, rep Reporter, input string) (string, error) {
	name := cp.Item().Name()
	rep.StepStarted(name, index, step.Name)

	h, err := cp.BeginStep(step.Name, step.Suffix)
	if err != nil {
		rep.StepFinished(name, index, step.Name, false)
		return "", err
	}

	opts := ffmpeg.RunOptions{Progress: func(line string) { rep.Output(name, line) }}
	if err := step.Transform(ctx, input, h.InFlightPath(), opts); err != nil {
		stepErr := fmt.Errorf("step %s: %w", step.Name, err)
		if failErr := h.Fail(stepErr); failErr != nil {
			stepErr = fmt.Errorf("%w (additionally: %v)", stepErr, failErr)
		}
		rep.StepFinished(name, index, step.Name, false)
		return "", stepErr
	}

	stable, err := h.Succeed()
	if err != nil {
		rep.StepFinished(name, index, step.Name, false)
		return "", err
	}
	rep.StepFinished(name, index, step.Name, true)
	return stable, nil
}
