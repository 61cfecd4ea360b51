// Package crawl drives a multi-station crawl session: it walks each
// station's result pages through the polite request gate, extracts records,
// and accounts a global quota across stations.
package crawl

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chintai-crawler/pkg/config"
	"chintai-crawler/pkg/fetch"
	"chintai-crawler/pkg/metrics"
	"chintai-crawler/pkg/models"
	"chintai-crawler/pkg/parse"
	"chintai-crawler/pkg/polite"
	"chintai-crawler/pkg/stations"
	"chintai-crawler/pkg/utils"
)

// RequestGate is the single path to the network. Satisfied by *polite.Gate.
type RequestGate interface {
	Perform(ctx context.Context, class polite.RequestClass, op polite.Operation) error
	UserAgent() string
	Stats() polite.Stats
	LogStats()
}

// RobotsPolicy decides whether a start URL may be crawled at all.
// Satisfied by *fetch.RobotsChecker.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url, userAgent string) bool
}

// Controller runs crawl sessions. It owns no HTTP or browser mechanics:
// pages arrive through the gate-wrapped fetcher and leave through the
// parser callbacks.
type Controller struct {
	cfg     config.CrawlConfig
	gate    RequestGate
	fetcher fetch.PageFetcher
	robots  RobotsPolicy // nil disables the robots check
	log     *logrus.Entry

	resolve  func(station, prefecture string) (string, error)
	listings func(page *fetch.Page, station string) parse.Result
	nextPage func(page *fetch.Page) string
	clock    polite.Clock
}

// Options contains optional parameters for NewController, mainly seams for
// deterministic tests.
type Options struct {
	Resolve         func(station, prefecture string) (string, error)
	ExtractListings func(page *fetch.Page, station string) parse.Result
	NextPageURL     func(page *fetch.Page) string
	Clock           polite.Clock
}

// NewController creates a Controller with the production resolver and parser.
func NewController(cfg config.CrawlConfig, gate RequestGate, fetcher fetch.PageFetcher, robots RobotsPolicy, log *logrus.Entry) *Controller {
	return NewControllerWithOptions(cfg, gate, fetcher, robots, log, nil)
}

// NewControllerWithOptions creates a Controller with optional overrides.
func NewControllerWithOptions(cfg config.CrawlConfig, gate RequestGate, fetcher fetch.PageFetcher, robots RobotsPolicy, log *logrus.Entry, opts *Options) *Controller {
	c := &Controller{
		cfg:      cfg,
		gate:     gate,
		fetcher:  fetcher,
		robots:   robots,
		log:      log,
		resolve:  stations.URL,
		listings: parse.Listings,
		nextPage: parse.NextPageURL,
		clock:    polite.SystemClock,
	}
	if opts != nil {
		if opts.Resolve != nil {
			c.resolve = opts.Resolve
		}
		if opts.ExtractListings != nil {
			c.listings = opts.ExtractListings
		}
		if opts.NextPageURL != nil {
			c.nextPage = opts.NextPageURL
		}
		if opts.Clock != nil {
			c.clock = opts.Clock
		}
	}
	return c
}

// Run crawls stationList in order until quota records are collected or every
// station is exhausted. The result is always usable, cancellation included:
// whatever was collected before the interruption is returned alongside
// ctx's error. No failure below the station level ever aborts the session.
func (c *Controller) Run(ctx context.Context, stationList []string, quota int) (*models.SessionResult, error) {
	res := &models.SessionResult{
		SessionID:        uuid.NewString(),
		Stations:         append([]string(nil), stationList...),
		Quota:            quota,
		PerStationCounts: make(map[string]int),
		StartedAt:        c.clock.Now(),
	}

	c.log.WithFields(logrus.Fields{
		"session": res.SessionID, "stations": len(stationList), "quota": quota,
	}).Info("Starting crawl session")

	for i, station := range stationList {
		if quota <= 0 || len(res.Records) >= quota {
			c.log.Info("Quota reached, stopping station iteration")
			break
		}
		if ctx.Err() != nil {
			break
		}
		c.log.Infof("Processing station %d/%d: %s", i+1, len(stationList), station)
		c.crawlStation(ctx, res, station, quota)
	}

	res.FinishedAt = c.clock.Now()
	res.RequestStats = c.gate.Stats()

	c.log.WithFields(logrus.Fields{
		"session":           res.SessionID,
		"records":           len(res.Records),
		"pages":             res.PagesFetched,
		"extraction_errors": res.ExtractionErrors,
	}).Info("Crawl session finished")
	c.gate.LogStats()

	return res, ctx.Err()
}

// crawlStation walks one station's result pages, appending accepted records
// to res. Every exit path leaves earlier stations' records untouched.
func (c *Controller) crawlStation(ctx context.Context, res *models.SessionResult, station string, quota int) {
	stLog := c.log.WithField("station", station)

	startURL, err := c.resolve(station, c.cfg.Prefecture)
	if err != nil {
		stLog.WithField("category", utils.CategorizeError(err)).Errorf("Skipping station: %v", err)
		res.PerStationCounts[station] = 0
		return
	}

	if c.robots != nil && !c.robots.Allowed(ctx, startURL, c.gate.UserAgent()) {
		stLog.WithField("category", utils.CategorizeError(utils.ErrRobotsDisallowed)).
			Warn("Start URL disallowed by robots.txt, skipping station")
		res.PerStationCounts[station] = 0
		return
	}

	res.PerStationCounts[station] = 0
	pageURL := startURL

	for pageCount := 0; pageURL != "" && pageCount < c.cfg.MaxPagesPerStation; pageCount++ {
		// The first page of a station is the station transition; it gets
		// the longest pacing delay.
		class := polite.ClassPage
		if pageCount == 0 {
			class = polite.ClassStation
		}

		var page *fetch.Page
		err := c.gate.Perform(ctx, class, func(ctx context.Context) error {
			p, err := c.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			// A dead page ends this station only; records from earlier
			// stations and pages stay in the session.
			stLog.WithFields(logrus.Fields{
				"page": pageCount + 1, "category": utils.CategorizeError(err),
			}).Warnf("Abandoning station after fetch failure: %v", err)
			return
		}

		res.PagesFetched++
		metrics.PagesFetched.WithLabelValues(station).Inc()

		extracted := c.listings(page, station)
		res.ExtractionErrors += extracted.Dropped

		accepted := extracted.Listings
		if remaining := quota - len(res.Records); len(accepted) > remaining {
			// Fill the quota exactly: drop the excess from the tail of
			// this batch, never from records accepted earlier.
			accepted = accepted[:remaining]
		}
		res.Records = append(res.Records, accepted...)
		res.PerStationCounts[station] += len(accepted)
		metrics.RecordsCollected.WithLabelValues(station).Add(float64(len(accepted)))

		stLog.WithFields(logrus.Fields{
			"page": pageCount + 1, "accepted": len(accepted), "total": len(res.Records), "quota": quota,
		}).Info("Extracted listings")

		if len(res.Records) >= quota {
			stLog.Info("Quota reached")
			return
		}

		pageURL = c.nextPage(page)
	}

	stLog.WithField("records", res.PerStationCounts[station]).Info("Station completed")
}
