package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultTikTokAPI = "https://open.tiktokapis.com"

	ttDefaultPollInterval = 5 * time.Second
	ttDefaultPollTimeout  = 5 * time.Minute
)

// TikTokOptions configures the Content Posting API v2 client. The access
// token is short-lived, so every publish refreshes it from the stored
// refresh token first.
type TikTokOptions struct {
	ClientKey    string
	ClientSecret string
	RefreshToken string

	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
	Clock        Clock

	Logf func(format string, args ...any)
}

type TikTok struct {
	opts TikTokOptions
}

func NewTikTok(opts TikTokOptions) *TikTok {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTikTokAPI
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = ttDefaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = ttDefaultPollTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &TikTok{opts: opts}
}

func (tt *TikTok) Name() string { return "tiktok" }

// Publish runs the full direct-post flow: refresh token, init upload, PUT
// the file, poll publish status until complete or timed out.
func (tt *TikTok) Publish(ctx context.Context, path, caption string) error {
	token, err := tt.refreshAccessToken(ctx)
	if err != nil {
		return err
	}

	publishID, uploadURL, err := tt.initUpload(ctx, token, caption, path)
	if err != nil {
		return err
	}
	tt.opts.Logf("publish id %s", publishID)

	if err := tt.uploadFile(ctx, uploadURL, path); err != nil {
		return err
	}
	return tt.waitForPublish(ctx, token, publishID)
}

func (tt *TikTok) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_key", tt.opts.ClientKey)
	form.Set("client_secret", tt.opts.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", tt.opts.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tt.opts.BaseURL+"/v2/oauth/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Target: tt.Name(), Op: "refresh token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := tt.do(req, "refresh token", &result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", &PublishError{Target: tt.Name(), Op: "refresh token",
			Err: fmt.Errorf("no access_token in response")}
	}
	return result.AccessToken, nil
}

func (tt *TikTok) initUpload(ctx context.Context, token, caption, path string) (publishID, uploadURL string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", "", &PublishError{Target: tt.Name(), Op: "stat video", Err: err}
	}
	size := info.Size()

	payload := map[string]any{
		"post_info": map[string]any{
			"title":                    caption,
			"privacy_level":            "SELF_ONLY",
			"disable_duet":             false,
			"disable_stitch":           false,
			"disable_comment":          false,
			"video_cover_timestamp_ms": 1000,
		},
		"source_info": map[string]any{
			"source":            "FILE_UPLOAD",
			"video_size":        size,
			"chunk_size":        size,
			"total_chunk_count": 1,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", &PublishError{Target: tt.Name(), Op: "init upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tt.opts.BaseURL+"/v2/post/publish/video/init/", bytes.NewReader(body))
	if err != nil {
		return "", "", &PublishError{Target: tt.Name(), Op: "init upload", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	var result struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Data struct {
			PublishID string `json:"publish_id"`
			UploadURL string `json:"upload_url"`
		} `json:"data"`
	}
	if err := tt.do(req, "init upload", &result); err != nil {
		return "", "", err
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		if strings.Contains(strings.ToLower(result.Error.Code), "rate") {
			return "", "", &RateLimitError{Target: tt.Name(), Detail: result.Error.Message}
		}
		return "", "", &PublishError{Target: tt.Name(), Op: "init upload",
			Err: fmt.Errorf("%s: %s", result.Error.Code, result.Error.Message)}
	}
	if result.Data.PublishID == "" || result.Data.UploadURL == "" {
		return "", "", &PublishError{Target: tt.Name(), Op: "init upload",
			Err: fmt.Errorf("incomplete init response")}
	}
	return result.Data.PublishID, result.Data.UploadURL, nil
}

func (tt *TikTok) uploadFile(ctx context.Context, uploadURL, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: "upload video", Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: "upload video", Err: err}
	}
	size := info.Size()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: "upload video", Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	return tt.do(req, "upload video", nil)
}

func (tt *TikTok) waitForPublish(ctx context.Context, token, publishID string) error {
	body, err := json.Marshal(map[string]string{"publish_id": publishID})
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: "poll status", Err: err}
	}

	start := tt.opts.Clock.Now()
	for {
		if elapsed := tt.opts.Clock.Now().Sub(start); elapsed > tt.opts.PollTimeout {
			return &TimeoutError{Target: tt.Name(), Elapsed: elapsed}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			tt.opts.BaseURL+"/v2/post/publish/status/fetch/", bytes.NewReader(body))
		if err != nil {
			return &PublishError{Target: tt.Name(), Op: "poll status", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")

		var result struct {
			Data struct {
				Status     string `json:"status"`
				FailReason string `json:"fail_reason"`
			} `json:"data"`
		}
		if err := tt.do(req, "poll status", &result); err != nil {
			return err
		}
		tt.opts.Logf("publish status: %s", result.Data.Status)

		switch result.Data.Status {
		case "PUBLISH_COMPLETE":
			return nil
		case "FAILED":
			return &PublishError{Target: tt.Name(), Op: "publish",
				Err: fmt.Errorf("publish failed: %s", result.Data.FailReason)}
		}
		tt.opts.Clock.Sleep(tt.opts.PollInterval)
	}
}

func (tt *TikTok) do(req *http.Request, op string, out any) error {
	resp, err := tt.opts.HTTPClient.Do(req)
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PublishError{Target: tt.Name(), Op: op, Err: err}
	}
	if resp.StatusCode >= 400 {
		if isRateLimitResponse(resp.StatusCode, payload) {
			return &RateLimitError{Target: tt.Name(), Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return &PublishError{Target: tt.Name(), Op: op,
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return &PublishError{Target: tt.Name(), Op: op, Err: err}
		}
	}
	return nil
}
