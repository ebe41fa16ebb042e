package platform

import (
	"path/filepath"
	"strings"
)

const captionMaxLen = 150

// CaptionFromFilename derives a post caption/title from a video file name:
// pipeline suffixes stripped, underscores spaced out, title-cased, tagged,
// and clamped to the strictest platform limit.
func CaptionFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, suffix := range []string{"_final", "_normalized", "_scrubbed", "_novocals", "_cropped"} {
		base = strings.ReplaceAll(base, suffix, "")
	}
	name := strings.TrimSpace(strings.ReplaceAll(base, "_", " "))

	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	caption := strings.Join(words, " ") + " #Gaming #Highlights"
	if len(caption) > captionMaxLen {
		caption = caption[:captionMaxLen]
	}
	return caption
}
