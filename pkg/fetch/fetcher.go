// Package fetch provides the page fetching capabilities the crawl controller
// consumes: a headless-browser PageFetcher and a robots.txt checker.
package fetch

import (
	"context"
	"fmt"
	"time"

	"chintai-crawler/pkg/utils"
)

// Page is a fetched result page: the final URL after redirects and the raw
// rendered HTML.
type Page struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// PageFetcher fetches one URL into a Page. Implementations fail with an
// error wrapping utils.ErrFetch on navigation errors, timeouts, or HTTP
// status >= 400.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// NewFetchError builds the error for a failed page fetch. A zero status
// means the failure happened below HTTP (navigation, DNS, timeout).
func NewFetchError(url string, status int, cause error) error {
	if status > 0 {
		return fmt.Errorf("%w: status %d fetching %s", utils.ErrFetch, status, url)
	}
	return fmt.Errorf("%w: %s: %v", utils.ErrFetch, url, cause)
}
