package platform

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CheckReachable probes a service base URL with a cheap HEAD request. Used
// to gate targets that depend on the public file tunnel before spending a
// full upload attempt on them.
func CheckReachable(ctx context.Context, service, baseURL string, client *http.Client) error {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return &ReachabilityError{Service: service, Err: fmt.Errorf("no base URL configured")}
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
	if err != nil {
		return &ReachabilityError{Service: service, Err: err}
	}
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := client.Do(req)
	if err != nil {
		return &ReachabilityError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &ReachabilityError{Service: service, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}
