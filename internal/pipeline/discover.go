package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shorts-factory/internal/store"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// Discover lists the source videos in a workspace directory, lexicographic
// order. Derived artifacts, in-flight remnants, and subdirectories are never
// work items.
func Discover(dir string) ([]store.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", dir, err)
	}

	var items []store.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if store.IsInFlightName(name) || store.IsDerivedName(name) {
			continue
		}
		items = append(items, store.NewItem(filepath.Join(dir, name)))
	}
	return items, nil
}

// Resumable returns the names of items that already carry a checkpoint
// sidecar from an earlier run.
func Resumable(items []store.Item) []string {
	var names []string
	for _, it := range items {
		if _, err := os.Stat(it.SidecarPath()); err == nil {
			names = append(names, it.Name())
		}
	}
	return names
}
