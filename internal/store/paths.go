package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// All checkpoint naming lives here so resume logic cannot drift from
// artifact naming. Existence of a stable artifact IS the done marker for its
// step; anything carrying the in-flight marker is never trustworthy.

const (
	sidecarSuffix    = ".status.json"
	inFlightMarker   = ".inflight-"
	ProcessedDirName = "processed"

	// FinalSuffix names the last step's stable artifact, the only
	// artifact eligible for publishing and archival.
	FinalSuffix = "final"
)

// stableSuffixes covers every derived-output suffix this tool has ever
// written, so discovery never mistakes a pipeline artifact for new work.
var stableSuffixes = []string{"cropped", "scrubbed", "normalized", "novocals", FinalSuffix}

// Item identifies one unit of work by its source video path.
type Item struct {
	// Source is the full path to the source video.
	Source string

	dir  string
	base string
	ext  string
}

func NewItem(sourcePath string) Item {
	dir := filepath.Dir(sourcePath)
	name := filepath.Base(sourcePath)
	ext := filepath.Ext(name)
	return Item{
		Source: sourcePath,
		dir:    dir,
		base:   strings.TrimSuffix(name, ext),
		ext:    ext,
	}
}

// Name returns the item's file name, used as its display identifier.
func (it Item) Name() string {
	return it.base + it.ext
}

// StablePath is the durable output path for the step with the given suffix.
func (it Item) StablePath(suffix string) string {
	return filepath.Join(it.dir, fmt.Sprintf("%s_%s%s", it.base, suffix, it.ext))
}

// InFlightPath returns a fresh uniquely-named in-progress output path for
// the step with the given suffix. The extension stays last so ffmpeg can
// still infer the container format.
func (it Item) InFlightPath(suffix string) string {
	return filepath.Join(it.dir, fmt.Sprintf("%s_%s%s%s%s",
		it.base, suffix, inFlightMarker, uuid.NewString()[:8], it.ext))
}

// FinalPath is the stable artifact of the last step.
func (it Item) FinalPath() string {
	return it.StablePath(FinalSuffix)
}

func (it Item) SidecarPath() string {
	return filepath.Join(it.dir, it.base+sidecarSuffix)
}

// ProcessedDir is the archival location for fully succeeded items.
func (it Item) ProcessedDir() string {
	return filepath.Join(it.dir, ProcessedDirName)
}

// IsInFlightName reports whether a file name carries the in-flight marker.
func IsInFlightName(name string) bool {
	return strings.Contains(name, inFlightMarker)
}

// IsDerivedName reports whether a file name is a pipeline output (stable
// artifact, in-flight artifact, or sidecar) rather than a source video.
func IsDerivedName(name string) bool {
	if IsInFlightName(name) {
		return true
	}
	if strings.HasSuffix(name, sidecarSuffix) {
		return true
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, suffix := range stableSuffixes {
		if strings.HasSuffix(base, "_"+suffix) {
			return true
		}
	}
	return false
}
