package polite

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"chintai-crawler/pkg/config"
)

// RequestClass selects which delay policy the Pacer applies before a request.
type RequestClass string

const (
	// ClassDefault waits a random duration in [min_delay, max_delay] to
	// mimic irregular human timing.
	ClassDefault RequestClass = "default"
	// ClassPage waits the fixed page_delay (moving to the next result page).
	ClassPage RequestClass = "page"
	// ClassStation waits the fixed station_delay (switching search targets,
	// the most automated-looking action, so the longest wait).
	ClassStation RequestClass = "station"
)

// Pacer enforces a minimum interval between consecutive requests, keyed by
// request class. A single last-request timestamp is enough because the gate
// serializes admission.
type Pacer struct {
	cfg   config.RateLimitConfig
	clock Clock
	log   *logrus.Entry

	mu           sync.Mutex
	lastRequest  time.Time
	requestCount int
	sessionStart time.Time
}

// NewPacer creates a Pacer. A nil clock falls back to SystemClock.
func NewPacer(cfg config.RateLimitConfig, clock Clock, log *logrus.Entry) *Pacer {
	if clock == nil {
		clock = SystemClock
	}
	return &Pacer{
		cfg:          cfg,
		clock:        clock,
		log:          log,
		sessionStart: clock.Now(),
	}
}

// Wait blocks until the required delay for class has elapsed since the
// previous request, then records the request. Returns the duration actually
// slept. Respects ctx cancellation during the wait.
func (p *Pacer) Wait(ctx context.Context, class RequestClass) (time.Duration, error) {
	required := p.delayFor(class)

	p.mu.Lock()
	last := p.lastRequest
	p.mu.Unlock()

	var slept time.Duration
	if !last.IsZero() {
		elapsed := p.clock.Now().Sub(last)
		if elapsed < required {
			slept = required - elapsed
			p.log.WithFields(logrus.Fields{
				"class": class, "sleep": slept, "required_delay": required, "elapsed": elapsed,
			}).Debug("Pacing: waiting before next request")
			if err := p.clock.Sleep(ctx, slept); err != nil {
				return 0, err
			}
		}
	}

	p.mu.Lock()
	p.lastRequest = p.clock.Now()
	p.requestCount++
	count := p.requestCount
	sessionDuration := p.lastRequest.Sub(p.sessionStart)
	p.mu.Unlock()

	// Periodic diagnostic only, never feeds back into pacing decisions.
	if count%10 == 0 && sessionDuration > 0 {
		p.log.WithFields(logrus.Fields{
			"requests":     count,
			"avg_interval": sessionDuration / time.Duration(count),
		}).Info("Pacer session stats")
	}

	return slept, nil
}

// delayFor resolves the required inter-request delay for a class.
func (p *Pacer) delayFor(class RequestClass) time.Duration {
	switch class {
	case ClassPage:
		return p.cfg.PageDelay
	case ClassStation:
		return p.cfg.StationDelay
	default:
		spread := p.cfg.MaxDelay - p.cfg.MinDelay
		if spread <= 0 {
			return p.cfg.MinDelay
		}
		return p.cfg.MinDelay + time.Duration(rand.Int63n(int64(spread)))
	}
}
