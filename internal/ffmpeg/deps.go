package ffmpeg

import (
	"fmt"
	"os/exec"
)

type DependencyReport struct {
	FFmpegFound  bool   `json:"ffmpeg_found"`
	FFmpegPath   string `json:"ffmpeg_path,omitempty"`
	FFprobeFound bool   `json:"ffprobe_found"`
	FFprobePath  string `json:"ffprobe_path,omitempty"`
	DemucsFound  bool   `json:"demucs_found"`
	DemucsPath   string `json:"demucs_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		report.FFprobeFound = true
		report.FFprobePath = path
	}
	if path, err := exec.LookPath("demucs"); err == nil {
		report.DemucsFound = true
		report.DemucsPath = path
	}
	return report
}

// CheckDependencies fails fast when a required external tool is missing.
// demucs is only needed when the voice-scrub step is enabled, so callers
// pass needDemucs accordingly.
func CheckDependencies(needDemucs bool) error {
	report := DependencyStatus()
	if !report.FFmpegFound {
		return fmt.Errorf("missing dependency: ffmpeg is not installed or not on PATH")
	}
	if !report.FFprobeFound {
		return fmt.Errorf("missing dependency: ffprobe is not installed or not on PATH")
	}
	if needDemucs && !report.DemucsFound {
		return fmt.Errorf("missing dependency: demucs is required for voice scrubbing and was not found on PATH")
	}
	return nil
}
