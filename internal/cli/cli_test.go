package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func setAllCredentials(t *testing.T) {
	t.Helper()
	for _, vars := range targetEnv {
		for _, v := range vars {
			t.Setenv(v, "test-value")
		}
	}
}

func TestItemForFinalMapsBackToSource(t *testing.T) {
	item, err := itemForFinal(filepath.Join("clips", "epic_clutch_final.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := item.Source, filepath.Join("clips", "epic_clutch.mp4"); got != want {
		t.Fatalf("source = %q, want %q", got, want)
	}
	if got, want := item.SidecarPath(), filepath.Join("clips", "epic_clutch.status.json"); got != want {
		t.Fatalf("sidecar = %q, want %q", got, want)
	}
}

func TestItemForFinalRejectsNonFinalNames(t *testing.T) {
	for _, name := range []string{"epic_clutch.mp4", "epic_clutch_cropped.mp4", "final.mp4"} {
		if _, err := itemForFinal(name); err == nil {
			t.Fatalf("%s should be rejected", name)
		}
	}
}

func TestBuildTargetsRequiresCredentials(t *testing.T) {
	setAllCredentials(t)
	t.Setenv("TT_CLIENT_KEY", "")
	t.Setenv("YT_REFRESH_TOKEN", "")

	_, err := buildTargets(nil)
	if err == nil {
		t.Fatal("want error for missing credentials")
	}
	for _, name := range []string{"TT_CLIENT_KEY", "YT_REFRESH_TOKEN"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q should name %s", err, name)
		}
	}
}

func TestBuildTargetsSkipBypassesCredentialCheck(t *testing.T) {
	setAllCredentials(t)
	t.Setenv("TT_CLIENT_KEY", "")

	targets, err := buildTargets(map[string]bool{"tiktok": true})
	if err != nil {
		t.Fatalf("skipped target must not require credentials: %v", err)
	}
	if len(targets) != 3 {
		t.Fatalf("got %d targets, want 3", len(targets))
	}
}

func TestBuildTargetsRejectsUnknownSkipTarget(t *testing.T) {
	setAllCredentials(t)
	if _, err := buildTargets(map[string]bool{"twitch": true}); err == nil {
		t.Fatal("want error for unknown skip target")
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run([]string{"frobnicate"}); err == nil {
		t.Fatal("want error for unknown command")
	}
}

func TestStringListCollectsRepeatedValues(t *testing.T) {
	var l stringList
	for _, v := range []string{"Instagram", "tiktok"} {
		if err := l.Set(v); err != nil {
			t.Fatal(err)
		}
	}
	set := l.toSet()
	if !set["instagram"] || !set["tiktok"] {
		t.Fatalf("set = %v", set)
	}
	if err := l.Set(" "); err == nil {
		t.Fatal("blank value should be rejected")
	}
}
