package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverSkipsDerivedAndNonVideoFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"beta.MOV",
		"alpha.mp4",
		"alpha_final.mp4",
		"alpha_cropped.mp4",
		"alpha_cropped.inflight-1a2b3c4d.mp4",
		"alpha.status.json",
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "processed"), 0o755); err != nil {
		t.Fatal(err)
	}

	items, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha.mp4", "beta.MOV"}
	if len(items) != len(want) {
		t.Fatalf("discovered %d items, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Name() != want[i] {
			t.Fatalf("item %d = %q, want %q", i, item.Name(), want[i])
		}
	}
}

func TestResumableReportsItemsWithSidecars(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "b.status.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := Resumable(items)
	if len(names) != 1 || names[0] != "b.mp4" {
		t.Fatalf("resumable = %v, want [b.mp4]", names)
	}
}
