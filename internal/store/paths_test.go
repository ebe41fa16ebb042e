package store

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestItemPaths(t *testing.T) {
	it := NewItem(filepath.Join("videos", "clip.mp4"))

	if got := it.Name(); got != "clip.mp4" {
		t.Fatalf("unexpected name: %q", got)
	}
	if got := it.StablePath("cropped"); got != filepath.Join("videos", "clip_cropped.mp4") {
		t.Fatalf("unexpected stable path: %q", got)
	}
	if got := it.FinalPath(); got != filepath.Join("videos", "clip_final.mp4") {
		t.Fatalf("unexpected final path: %q", got)
	}
	if got := it.SidecarPath(); got != filepath.Join("videos", "clip.status.json") {
		t.Fatalf("unexpected sidecar path: %q", got)
	}
}

func TestInFlightPathIsUniqueAndDetectable(t *testing.T) {
	it := NewItem("clip.mp4")

	a := it.InFlightPath("cropped")
	b := it.InFlightPath("cropped")
	if a == b {
		t.Fatalf("expected unique in-flight paths, got %q twice", a)
	}
	if !IsInFlightName(filepath.Base(a)) {
		t.Fatalf("in-flight name not detectable: %q", a)
	}
	if !strings.HasSuffix(a, ".mp4") {
		t.Fatalf("in-flight path must keep the container extension: %q", a)
	}
}

func TestIsDerivedName(t *testing.T) {
	derived := []string{
		"clip_cropped.mp4",
		"clip_scrubbed.mp4",
		"clip_final.mp4",
		"clip_novocals.mp4",
		"clip.status.json",
		"clip_cropped.inflight-a1b2c3d4.mp4",
	}
	for _, name := range derived {
		if !IsDerivedName(name) {
			t.Fatalf("expected %q to be derived", name)
		}
	}

	sources := []string{"clip.mp4", "my_final_cut_v2.mp4", "croppedclip.mp4"}
	for _, name := range sources {
		if IsDerivedName(name) {
			t.Fatalf("expected %q to be a source", name)
		}
	}
}
