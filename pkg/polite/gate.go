package polite

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"chintai-crawler/pkg/config"
	"chintai-crawler/pkg/metrics"
)

// Gate is the single entry point for performing a network operation
// politely. It composes the pacer, the retrier, the identity rotator and the
// monitor behind a concurrency bound, so every request class gets uniform
// pacing and retry behavior. The gate knows nothing about crawl semantics.
type Gate struct {
	pacer   *Pacer
	retrier *Retrier
	monitor *Monitor
	agents  *AgentRotator
	sem     *semaphore.Weighted
	clock   Clock
	log     *logrus.Entry
}

// NewGate builds a Gate from the rate limit configuration. A nil clock falls
// back to SystemClock; an empty agent pool uses the built-in identities.
func NewGate(cfg config.RateLimitConfig, agentPool []string, clock Clock, log *logrus.Entry) *Gate {
	if clock == nil {
		clock = SystemClock
	}
	limit := int64(cfg.ConcurrencyLimit)
	if limit <= 0 {
		limit = 1
	}
	return &Gate{
		pacer:   NewPacer(cfg, clock, log),
		retrier: NewRetrier(cfg.MaxRetries, cfg.RetryBaseDelay, clock, log),
		monitor: NewMonitor(clock),
		agents:  NewAgentRotator(agentPool),
		sem:     semaphore.NewWeighted(limit),
		clock:   clock,
		log:     log,
	}
}

// Perform runs op behind the gate: acquire an execution slot, pace, execute
// with retries, record the outcome, release. The outcome is recorded whether
// or not the operation succeeded; the retrier's terminal error is propagated
// unchanged.
func (g *Gate) Perform(ctx context.Context, class RequestClass, op Operation) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	if _, err := g.pacer.Wait(ctx, class); err != nil {
		return err
	}

	start := g.clock.Now()
	err := g.retrier.Do(ctx, op)
	latency := g.clock.Now().Sub(start)

	g.monitor.Record(err == nil, latency)
	metrics.ObserveRequest(string(class), err, latency)

	return err
}

// UserAgent returns the next client identity from the rotation.
func (g *Gate) UserAgent() string {
	return g.agents.Next()
}

// Stats returns the monitor's current snapshot.
func (g *Gate) Stats() Stats {
	return g.monitor.Stats()
}

// LogStats emits the monitor's session summary.
func (g *Gate) LogStats() {
	g.monitor.LogStats(g.log)
}
