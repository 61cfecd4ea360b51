package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches, parses and caches robots.txt per host. Lookup
// failures of any kind degrade to "allowed": politeness should never make
// the crawl fail outright on a missing or broken robots file.
type RobotsChecker struct {
	client *http.Client
	log    *logrus.Entry

	cacheMu sync.Mutex
	cache   map[string]*robotstxt.RobotsData // hostname -> parsed data (nil = fetch failed)
}

// NewRobotsChecker creates a RobotsChecker using the given HTTP client.
func NewRobotsChecker(client *http.Client, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		client: client,
		log:    log,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether userAgent may fetch rawURL according to the
// host's robots.txt.
func (rc *RobotsChecker) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	target, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	data := rc.robotsData(ctx, target)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), userAgent)
}

// robotsData returns the cached robots data for the URL's host, fetching on
// a cache miss. A nil result (cached or fresh) means the file could not be
// obtained or parsed.
func (rc *RobotsChecker) robotsData(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := target.Hostname()

	rc.cacheMu.Lock()
	data, found := rc.cache[host]
	rc.cacheMu.Unlock()
	if found {
		return data
	}

	robotsURL := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := rc.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL.String()})
	robotsLog.Info("Fetching robots.txt...")

	data = rc.fetch(ctx, robotsURL.String(), robotsLog)

	rc.cacheMu.Lock()
	rc.cache[host] = data // failures are cached too, one lookup per host
	rc.cacheMu.Unlock()

	return data
}

func (rc *RobotsChecker) fetch(ctx context.Context, robotsURL string, log *logrus.Entry) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		log.Errorf("Error creating robots.txt request: %v", err)
		return nil
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		log.Warnf("Fetching robots.txt failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).Debug("No usable robots.txt")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Error reading robots.txt body: %v", err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		log.Errorf("Error parsing robots.txt: %v", err)
		return nil
	}

	log.Info("Successfully fetched and parsed robots.txt")
	return data
}
