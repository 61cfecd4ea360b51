package fetch

import (
	"context"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"chintai-crawler/pkg/config"
	"chintai-crawler/pkg/polite"
)

// BrowserFetcher implements PageFetcher with a headless Chrome instance.
// One allocator is created up front and every Fetch opens a fresh tab, so a
// crashed page never poisons the session. The fetcher owns no pacing or
// retry behavior; that lives entirely in the polite gate.
type BrowserFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	nextAgent   func() string
	clock       polite.Clock
	log         *logrus.Entry
}

// NewBrowserFetcher starts a browser allocator. nextAgent supplies the
// client identity for each navigation (typically Gate.UserAgent). A nil
// clock falls back to the system clock.
func NewBrowserFetcher(cfg config.BrowserConfig, headless bool, nextAgent func() string, clock polite.Clock, log *logrus.Entry) *BrowserFetcher {
	if clock == nil {
		clock = polite.SystemClock
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1366, 768),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
		nextAgent:   nextAgent,
		clock:       clock,
		log:         log,
	}
}

// Close shuts the browser allocator down.
func (f *BrowserFetcher) Close() {
	f.allocCancel()
}

// Fetch navigates to url in a new tab and returns the rendered page.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	taskCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancelTimeout()

	// chromedp contexts must derive from the allocator, so caller
	// cancellation is bridged in manually.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	ua := ""
	if f.nextAgent != nil {
		ua = f.nextAgent()
	}

	// Capture the main document's HTTP status from network events.
	var status int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument && status == 0 {
				status = resp.Response.Status
			}
		}
	})

	fetchLog := f.log.WithField("url", url)
	fetchLog.Debug("Navigating")

	tasks := chromedp.Tasks{network.Enable()}
	if ua != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(ua))
	}
	tasks = append(tasks, chromedp.Navigate(url))

	if err := chromedp.Run(taskCtx, tasks); err != nil {
		fetchLog.Warnf("Navigation failed: %v", err)
		return nil, NewFetchError(url, 0, err)
	}
	if status >= 400 {
		fetchLog.WithField("status", status).Warn("Server returned error status")
		return nil, NewFetchError(url, int(status), nil)
	}

	// Settle wait after load, randomized to look like a human reading the
	// page before the markup is pulled.
	settle := f.cfg.SettleMinDelay
	if spread := f.cfg.SettleMaxDelay - f.cfg.SettleMinDelay; spread > 0 {
		settle += time.Duration(rand.Int63n(int64(spread)))
	}
	if err := f.clock.Sleep(ctx, settle); err != nil {
		return nil, err
	}

	var html, finalURL string
	if err := chromedp.Run(taskCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		fetchLog.Warnf("Extracting document failed: %v", err)
		return nil, NewFetchError(url, 0, err)
	}

	fetchLog.WithFields(logrus.Fields{"status": status, "bytes": len(html)}).Debug("Fetched page")
	return &Page{URL: finalURL, HTML: html, FetchedAt: f.clock.Now()}, nil
}
