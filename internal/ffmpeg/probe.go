package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Dimensions returns the width and height of the first video stream.
func Dimensions(ctx context.Context, path string) (width, height int, err error) {
	out, err := Output(ctx, "ffprobe", []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0",
		path,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", path, err)
	}

	parts := strings.Split(strings.TrimSuffix(out, ","), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("probe %s: unexpected ffprobe output %q", path, out)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: parse width: %w", path, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: parse height: %w", path, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("probe %s: invalid dimensions %dx%d", path, width, height)
	}
	return width, height, nil
}
