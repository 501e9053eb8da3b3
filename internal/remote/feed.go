package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// FeedData is parsed flat-feed content: master data only, orders are never
// carried by the feed.
type FeedData struct {
	Items     []model.Item
	Suppliers []model.Supplier
}

// FeedParser converts raw flat-feed text into master data. The parsing
// rules live outside the core; the orchestrator only sees the parsed
// collections.
type FeedParser interface {
	Parse(raw string) (FeedData, error)
}

// FeedClient fetches the raw flat feed over HTTP. The raw text's digest is
// surfaced so the orchestrator can detect an unchanged feed and skip the
// replace (idempotent re-sync).
type FeedClient struct {
	url  string
	http *http.Client
}

// NewFeedClient creates a FeedClient for the given feed URL.
func NewFeedClient(url string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the raw feed text and returns it with its fingerprint.
func (f *FeedClient) Fetch(ctx context.Context) (raw, fingerprint string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", "", &RemoteError{Op: "fetch feed", Err: err}
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", "", &RemoteError{Op: "fetch feed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", &RemoteError{Op: "fetch feed", Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", &RemoteError{Op: "read feed", Err: err}
	}
	return string(body), Fingerprint(string(body)), nil
}

// Fingerprint digests raw feed text for idempotent re-sync detection.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
