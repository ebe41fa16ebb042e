package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ScrubVoices removes vocals from a video's audio using demucs two-stem
// source separation: extract the audio track, separate vocals from
// accompaniment, then remux the accompaniment over the original video.
func ScrubVoices(ctx context.Context, inputPath, outputPath string, opts RunOptions) error {
	tmpDir, err := os.MkdirTemp("", "scrub-voices-")
	if err != nil {
		return fmt.Errorf("scrub voices: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, "audio.wav")
	extractArgs := []string{
		"-hide_banner", "-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		audioPath,
	}
	if err := Run(ctx, "ffmpeg", extractArgs, opts); err != nil {
		return fmt.Errorf("scrub voices: extract audio from %s: %w", inputPath, err)
	}

	demucsArgs := []string{
		"--two-stems", "vocals",
		"-o", tmpDir,
		"--filename", "{stem}.{ext}",
		audioPath,
	}
	if err := Run(ctx, "demucs", demucsArgs, opts); err != nil {
		return fmt.Errorf("scrub voices: separate vocals: %w", err)
	}

	accompaniment, err := findAccompaniment(tmpDir)
	if err != nil {
		return err
	}

	remuxArgs := []string{
		"-hide_banner", "-y",
		"-i", inputPath,
		"-i", accompaniment,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outputPath,
	}
	if err := Run(ctx, "ffmpeg", remuxArgs, opts); err != nil {
		return fmt.Errorf("scrub voices: remux %s: %w", inputPath, err)
	}
	return nil
}

// demucs output layout varies across versions; check both known spots.
func findAccompaniment(tmpDir string) (string, error) {
	candidates := []string{
		filepath.Join(tmpDir, "htdemucs", "no_vocals.wav"),
		filepath.Join(tmpDir, "htdemucs", "audio", "no_vocals.wav"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, nil
		}
	}
	return "", fmt.Errorf("scrub voices: separated accompaniment track not found under %s", tmpDir)
}
