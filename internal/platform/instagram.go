package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultGraphAPI = "https://graph.instagram.com/v21.0"

	igDefaultPollInterval = 30 * time.Second
	igDefaultPollTimeout  = 10 * time.Minute
)

// InstagramOptions configures the Reels client. UserID, AccessToken, and
// PublicBaseURL are required; the video must be fetchable by Instagram at
// PublicBaseURL/<filename>, which is why this target is gated on a tunnel
// reachability precheck.
type InstagramOptions struct {
	UserID        string
	AccessToken   string
	PublicBaseURL string

	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
	Clock        Clock

	Logf func(format string, args ...any)
}

type Instagram struct {
	opts InstagramOptions
}

func NewInstagram(opts InstagramOptions) *Instagram {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGraphAPI
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = igDefaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = igDefaultPollTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Instagram{opts: opts}
}

func (ig *Instagram) Name() string { return "instagram" }

// Precheck verifies the public tunnel is up before any upload is attempted.
func (ig *Instagram) Precheck(ctx context.Context) error {
	return CheckReachable(ctx, "tunnel", ig.opts.PublicBaseURL, ig.opts.HTTPClient)
}

// Publish posts the finalized artifact as a Reel: preflight the public
// video URL, create a media container, poll until Instagram finishes
// ingesting it, then publish the container.
func (ig *Instagram) Publish(ctx context.Context, path, caption string) error {
	videoURL := ig.videoURL(path)
	if err := ig.preflight(ctx, videoURL); err != nil {
		return err
	}

	containerID, err := ig.createContainer(ctx, videoURL, caption)
	if err != nil {
		return err
	}
	ig.opts.Logf("container %s created", containerID)

	if err := ig.waitForContainer(ctx, containerID); err != nil {
		return err
	}
	return ig.publishContainer(ctx, containerID)
}

func (ig *Instagram) videoURL(path string) string {
	base := strings.TrimRight(ig.opts.PublicBaseURL, "/")
	return base + "/" + url.PathEscape(filepath.Base(path))
}

// preflight confirms Instagram would be able to fetch the video; a dead
// tunnel here fails fast instead of waiting out a container error.
func (ig *Instagram) preflight(ctx context.Context, videoURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, videoURL, nil)
	if err != nil {
		return &PublishError{Target: ig.Name(), Op: "preflight", Err: err}
	}
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := ig.opts.HTTPClient.Do(req)
	if err != nil {
		return &PublishError{Target: ig.Name(), Op: "preflight", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &PublishError{Target: ig.Name(), Op: "preflight",
			Err: fmt.Errorf("video URL %s returned status %d", videoURL, resp.StatusCode)}
	}
	return nil
}

func (ig *Instagram) createContainer(ctx context.Context, videoURL, caption string) (string, error) {
	params := url.Values{}
	params.Set("media_type", "REELS")
	params.Set("video_url", videoURL)
	params.Set("access_token", ig.opts.AccessToken)
	if caption != "" {
		params.Set("caption", caption)
	}

	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media", ig.opts.BaseURL, ig.opts.UserID)
	if err := ig.api(ctx, http.MethodPost, endpoint, params, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &PublishError{Target: ig.Name(), Op: "create container",
			Err: fmt.Errorf("no container id in response")}
	}
	return result.ID, nil
}

// waitForContainer polls the container status until FINISHED, classifying
// rate-limit responses so the publish worker can back off and retry.
func (ig *Instagram) waitForContainer(ctx context.Context, containerID string) error {
	params := url.Values{}
	params.Set("fields", "status_code,status")
	params.Set("access_token", ig.opts.AccessToken)
	pollURL := fmt.Sprintf("%s/%s?%s", ig.opts.BaseURL, containerID, params.Encode())

	start := ig.opts.Clock.Now()
	for {
		if elapsed := ig.opts.Clock.Now().Sub(start); elapsed > ig.opts.PollTimeout {
			return &TimeoutError{Target: ig.Name(), Elapsed: elapsed}
		}

		var status struct {
			StatusCode string `json:"status_code"`
			Status     string `json:"status"`
		}
		if err := ig.api(ctx, http.MethodGet, pollURL, nil, &status); err != nil {
			return err
		}
		ig.opts.Logf("container status: %s", status.StatusCode)

		switch status.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return &PublishError{Target: ig.Name(), Op: "container processing",
				Err: fmt.Errorf("container failed: %s", status.Status)}
		}
		ig.opts.Clock.Sleep(ig.opts.PollInterval)
	}
}

func (ig *Instagram) publishContainer(ctx context.Context, containerID string) error {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", ig.opts.AccessToken)

	var result struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media_publish", ig.opts.BaseURL, ig.opts.UserID)
	if err := ig.api(ctx, http.MethodPost, endpoint, params, &result); err != nil {
		return err
	}
	ig.opts.Logf("published media %s", result.ID)
	return nil
}

func (ig *Instagram) api(ctx context.Context, method, endpoint string, params url.Values, out any) error {
	var body io.Reader
	if params != nil {
		body = strings.NewReader(params.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &PublishError{Target: ig.Name(), Op: "request", Err: err}
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := ig.opts.HTTPClient.Do(req)
	if err != nil {
		return &PublishError{Target: ig.Name(), Op: "request", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PublishError{Target: ig.Name(), Op: "read response", Err: err}
	}
	if resp.StatusCode >= 400 {
		if isRateLimitResponse(resp.StatusCode, payload) {
			return &RateLimitError{Target: ig.Name(), Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return &PublishError{Target: ig.Name(), Op: "request",
			Err: fmt.Errorf("graph API error %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return &PublishError{Target: ig.Name(), Op: "parse response", Err: err}
		}
	}
	return nil
}

func isRateLimitResponse(status int, body []byte) bool {
	if status != http.StatusForbidden && status != http.StatusTooManyRequests {
		return false
	}
	return status == http.StatusTooManyRequests || strings.Contains(strings.ToLower(string(body)), "rate")
}
