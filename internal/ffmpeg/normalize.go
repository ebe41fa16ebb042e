package ffmpeg

import (
	"context"
	"fmt"
)

// alimiter: brickwall peak limiter at -1 dBFS. Loud transients are clamped
// down, quiet parts untouched, no auto gain.
const peakLimitFilter = "alimiter=limit=0.89:attack=5:release=50:level=false"

// LimitPeaks hard-limits audio peaks in a video, copying the video stream.
func LimitPeaks(ctx context.Context, inputPath, outputPath string, opts RunOptions) error {
	args := []string{
		"-hide_banner", "-y",
		"-i", inputPath,
		"-af", peakLimitFilter,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		outputPath,
	}
	if err := Run(ctx, "ffmpeg", args, opts); err != nil {
		return fmt.Errorf("limit audio peaks %s: %w", inputPath, err)
	}
	return nil
}
