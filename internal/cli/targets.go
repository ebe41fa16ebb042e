package cli

import (
	"fmt"
	"os"
	"strings"

	"shorts-factory/internal/platform"
	"shorts-factory/internal/publish"
)

// targetEnv maps each publishing target to the environment variables it
// requires. doctor reports on the same table.
var targetEnv = map[string][]string{
	"instagram": {"IG_USER_ID", "IG_ACCESS_TOKEN", "PUBLIC_BASE_URL"},
	"tiktok":    {"TT_CLIENT_KEY", "TT_CLIENT_SECRET", "TT_REFRESH_TOKEN"},
	"youtube":   {"YT_CLIENT_ID", "YT_CLIENT_SECRET", "YT_REFRESH_TOKEN"},
}

func knownTarget(name string) bool {
	_, ok := targetEnv[name]
	return ok
}

func missingEnv(vars []string) []string {
	var missing []string
	for _, v := range vars {
		if strings.TrimSpace(os.Getenv(v)) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// buildTargets constructs every publishing target not in skip from the
// environment. Incomplete credentials for a wanted target are an error up
// front, not a mid-batch surprise.
func buildTargets(skip map[string]bool) ([]publish.Target, error) {
	for name := range skip {
		if !knownTarget(name) {
			return nil, fmt.Errorf("unknown target %q: valid targets are instagram, tiktok, youtube", name)
		}
	}

	var missing []string
	for _, name := range []string{"instagram", "tiktok", "youtube"} {
		if skip[name] {
			continue
		}
		missing = append(missing, missingEnv(targetEnv[name])...)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing publishing credentials: %s (set them or use --skip-target)", strings.Join(missing, ", "))
	}

	ig := platform.NewInstagram(platform.InstagramOptions{
		UserID:        os.Getenv("IG_USER_ID"),
		AccessToken:   os.Getenv("IG_ACCESS_TOKEN"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
	})
	tt := platform.NewTikTok(platform.TikTokOptions{
		ClientKey:    os.Getenv("TT_CLIENT_KEY"),
		ClientSecret: os.Getenv("TT_CLIENT_SECRET"),
		RefreshToken: os.Getenv("TT_REFRESH_TOKEN"),
	})
	yt := platform.NewYouTube(platform.YouTubeOptions{
		ClientID:     os.Getenv("YT_CLIENT_ID"),
		ClientSecret: os.Getenv("YT_CLIENT_SECRET"),
		RefreshToken: os.Getenv("YT_REFRESH_TOKEN"),
	})

	return []publish.Target{
		{Name: ig.Name(), Publish: ig.Publish, Precheck: ig.Precheck},
		{Name: tt.Name(), Publish: tt.Publish},
		{Name: yt.Name(), Publish: yt.Publish},
	}, nil
}
