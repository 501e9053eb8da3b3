package remote

import (
	"context"
	"net/http"
	"time"
)

// ProbeURL returns a connectivity check that issues a HEAD request against
// the given URL. Any response at all counts as online; only transport
// failure counts as offline.
func ProbeURL(url string, timeout time.Duration) func(ctx context.Context) bool {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}
