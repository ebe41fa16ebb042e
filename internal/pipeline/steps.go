package pipeline

import (
	"context"

	"shorts-factory/internal/ffmpeg"
	"shorts-factory/internal/store"
)

// Step is one transform in the chain. Suffix names the stable artifact the
// step produces; an existing stable artifact means the step already ran.
type Step struct {
	Name   string
	Suffix string

	// Transform reads inputPath and writes its result to outputPath,
	// which is always an in-flight path promoted only on success.
	Transform func(ctx context.Context, inputPath, outputPath string, opts ffmpeg.RunOptions) error
}

// DefaultSteps is the full chain: reframe to vertical, strip voices, then
// limit audio peaks into the publishable artifact.
func DefaultSteps() []Step {
	return []Step{
		{Name: "crop", Suffix: "cropped", Transform: ffmpeg.Crop},
		{Name: "scrub", Suffix: "scrubbed", Transform: ffmpeg.ScrubVoices},
		{Name: "normalize", Suffix: store.FinalSuffix, Transform: ffmpeg.LimitPeaks},
	}
}

// StepsKeepingVoice drops the voice-separation step for clips where the
// commentary should survive.
func StepsKeepingVoice() []Step {
	steps := DefaultSteps()
	kept := steps[:0]
	for _, s := range steps {
		if s.Name == "scrub" {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// NeedsVoiceScrub reports whether the chain includes voice separation,
// which requires demucs on PATH.
func NeedsVoiceScrub(steps []Step) bool {
	for _, s := range steps {
		if s.Name == "scrub" {
			return true
		}
	}
	return false
}
