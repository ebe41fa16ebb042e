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
	defaultYouTubeTokenURL  = "https://oauth2.googleapis.com/token"
	defaultYouTubeUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"

	ytCategoryGaming = "20"
	ytChunkSize      = 10 * 1024 * 1024
)

// YouTubeOptions configures the Shorts client. Shorts are ordinary uploads
// with vertical video; the pipeline already produces 9:16 output, so any
// finalized artifact is Shorts-ready.
type YouTubeOptions struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	TokenURL   string
	UploadURL  string
	HTTPClient *http.Client

	Logf func(format string, args ...any)
}

type YouTube struct {
	opts YouTubeOptions
}

func NewYouTube(opts YouTubeOptions) *YouTube {
	if opts.TokenURL == "" {
		opts.TokenURL = defaultYouTubeTokenURL
	}
	if opts.UploadURL == "" {
		opts.UploadURL = defaultYouTubeUploadURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &YouTube{opts: opts}
}

func (yt *YouTube) Name() string { return "youtube" }

// Publish uploads the finalized artifact as a Short via a resumable upload
// session: refresh the OAuth token, open the session, PUT the file in
// chunks until YouTube answers with the video metadata.
func (yt *YouTube) Publish(ctx context.Context, path, caption string) error {
	token, err := yt.refreshAccessToken(ctx)
	if err != nil {
		return err
	}

	uploadURL, err := yt.initResumableUpload(ctx, token, caption)
	if err != nil {
		return err
	}

	videoID, err := yt.uploadFile(ctx, uploadURL, path)
	if err != nil {
		return err
	}
	yt.opts.Logf("uploaded https://youtube.com/shorts/%s", videoID)
	return nil
}

func (yt *YouTube) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", yt.opts.ClientID)
	form.Set("client_secret", yt.opts.ClientSecret)
	form.Set("refresh_token", yt.opts.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, yt.opts.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "refresh token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := yt.opts.HTTPClient.Do(req)
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "refresh token", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "refresh token", Err: err}
	}
	if resp.StatusCode >= 400 {
		if isRateLimitResponse(resp.StatusCode, payload) {
			return "", &RateLimitError{Target: yt.Name(), Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return "", &PublishError{Target: yt.Name(), Op: "refresh token",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "refresh token", Err: err}
	}
	if result.AccessToken == "" {
		return "", &PublishError{Target: yt.Name(), Op: "refresh token",
			Err: fmt.Errorf("no access_token in response")}
	}
	return result.AccessToken, nil
}

func (yt *YouTube) initResumableUpload(ctx context.Context, token, caption string) (string, error) {
	metadata := map[string]any{
		"snippet": map[string]any{
			"title":       caption,
			"description": "",
			"tags":        []string{"Shorts", "gaming", "highlights"},
			"categoryId":  ytCategoryGaming,
		},
		"status": map[string]any{
			"privacyStatus":           "public",
			"selfDeclaredMadeForKids": false,
		},
	}
	body, err := json.Marshal(metadata)
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "init upload", Err: err}
	}

	endpoint := yt.opts.UploadURL + "?" + url.Values{
		"uploadType": {"resumable"},
		"part":       {"snippet,status"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "init upload", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := yt.opts.HTTPClient.Do(req)
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "init upload", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		if isRateLimitResponse(resp.StatusCode, payload) {
			return "", &RateLimitError{Target: yt.Name(), Detail: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return "", &PublishError{Target: yt.Name(), Op: "init upload",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}
	}

	uploadURL := resp.Header.Get("Location")
	if uploadURL == "" {
		return "", &PublishError{Target: yt.Name(), Op: "init upload",
			Err: fmt.Errorf("no resumable session URL in response")}
	}
	return uploadURL, nil
}

func (yt *YouTube) uploadFile(ctx context.Context, uploadURL, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
	}
	size := info.Size()

	buf := make([]byte, ytChunkSize)
	var offset int64
	for offset < size {
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
		}
		chunk := buf[:n]
		end := offset + int64(n) - 1

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(chunk))
		if err != nil {
			return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
		}
		req.ContentLength = int64(n)
		req.Header.Set("Content-Type", "video/mp4")
		req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end, size))

		resp, err := yt.opts.HTTPClient.Do(req)
		if err != nil {
			return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
		}
		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: readErr}
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			var result struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(payload, &result); err != nil {
				return "", &PublishError{Target: yt.Name(), Op: "upload video", Err: err}
			}
			return result.ID, nil
		case resp.StatusCode == 308:
			// Resume Incomplete: keep going with the next chunk.
			yt.opts.Logf("%d%% uploaded", (end+1)*100/size)
			offset = end + 1
		default:
			if isRateLimitResponse(resp.StatusCode, payload) {
				return "", &RateLimitError{Target: yt.Name(), Detail: fmt.Sprintf("status %d", resp.StatusCode)}
			}
			return "", &PublishError{Target: yt.Name(), Op: "upload video",
				Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}
		}
	}
	return "", &PublishError{Target: yt.Name(), Op: "upload video",
		Err: fmt.Errorf("upload finished without a final response")}
}
