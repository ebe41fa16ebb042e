package ffmpeg

import (
	"context"
	"fmt"
)

const (
	targetWidth  = 1080
	targetHeight = 1920
)

// CropGeometry computes the center-crop window that brings a w x h frame to
// a 9:16 aspect ratio. Wider-than-9:16 input loses width, taller input
// loses height.
func CropGeometry(w, h int) (cropW, cropH int) {
	// 9:16 as width/height.
	if w*16 > h*9 {
		return h * 9 / 16, h
	}
	return w, w * 16 / 9
}

// Crop center-crops and scales a video to 1080x1920 in a single ffmpeg
// pass: crop + scale filters, audio copied through untouched.
func Crop(ctx context.Context, inputPath, outputPath string, opts RunOptions) error {
	w, h, err := Dimensions(ctx, inputPath)
	if err != nil {
		return err
	}
	cropW, cropH := CropGeometry(w, h)

	filter := fmt.Sprintf("crop=%d:%d:(iw-%d)/2:(ih-%d)/2,scale=%d:%d",
		cropW, cropH, cropW, cropH, targetWidth, targetHeight)

	args := []string{
		"-hide_banner", "-y",
		"-i", inputPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "20",
		"-c:a", "copy",
		outputPath,
	}
	if err := Run(ctx, "ffmpeg", args, opts); err != nil {
		return fmt.Errorf("crop %s: %w", inputPath, err)
	}
	return nil
}
