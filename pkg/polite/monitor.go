package polite

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// retentionWindow bounds how long request outcomes are kept.
const retentionWindow = time.Hour

// RequestOutcome is one completed request attempt. Never mutated after
// creation.
type RequestOutcome struct {
	At      time.Time
	Success bool
	Latency time.Duration
}

// Stats is a point-in-time snapshot of the monitor's counters.
type Stats struct {
	SessionDuration time.Duration `json:"session_duration"`
	TotalRequests   int           `json:"total_requests"`
	SuccessCount    int           `json:"success_count"`
	ErrorCount      int           `json:"error_count"`
	SuccessRate     float64       `json:"success_rate"`
	AverageRate     float64       `json:"avg_request_rate"`  // requests/sec over the whole session
	RecentRate      float64       `json:"recent_request_rate"` // requests/sec over the trailing 5 minutes
}

// Monitor records the outcome and timing of every request and exposes
// rolling rate statistics. Observability only: it never gates admission.
// Safe under concurrent writers.
type Monitor struct {
	clock Clock

	mu           sync.Mutex
	startedAt    time.Time
	outcomes     []RequestOutcome
	successCount int
	errorCount   int
}

// NewMonitor creates a Monitor. A nil clock falls back to SystemClock.
func NewMonitor(clock Clock) *Monitor {
	if clock == nil {
		clock = SystemClock
	}
	return &Monitor{
		clock:     clock,
		startedAt: clock.Now(),
	}
}

// Record appends one outcome and prunes entries older than the retention
// window.
func (m *Monitor) Record(success bool, latency time.Duration) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, RequestOutcome{At: now, Success: success, Latency: latency})
	if success {
		m.successCount++
	} else {
		m.errorCount++
	}

	cutoff := now.Add(-retentionWindow)
	firstKept := 0
	for firstKept < len(m.outcomes) && !m.outcomes[firstKept].At.After(cutoff) {
		firstKept++
	}
	if firstKept > 0 {
		m.outcomes = append(m.outcomes[:0:0], m.outcomes[firstKept:]...)
	}
}

// Rate returns requests per second within the trailing window.
func (m *Monitor) Rate(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := 0
	for i := len(m.outcomes) - 1; i >= 0; i-- {
		if !m.outcomes[i].At.After(cutoff) {
			break
		}
		recent++
	}
	return float64(recent) / window.Seconds()
}

// Stats returns a snapshot of the session counters.
func (m *Monitor) Stats() Stats {
	now := m.clock.Now()

	m.mu.Lock()
	success, errs := m.successCount, m.errorCount
	started := m.startedAt
	m.mu.Unlock()

	total := success + errs
	s := Stats{
		SessionDuration: now.Sub(started),
		TotalRequests:   total,
		SuccessCount:    success,
		ErrorCount:      errs,
		RecentRate:      m.Rate(5 * time.Minute),
	}
	if total > 0 {
		s.SuccessRate = float64(success) / float64(total)
	}
	if s.SessionDuration > 0 {
		s.AverageRate = float64(total) / s.SessionDuration.Seconds()
	}
	return s
}

// LogStats emits a one-line summary of the session counters.
func (m *Monitor) LogStats(log *logrus.Entry) {
	s := m.Stats()
	log.WithFields(logrus.Fields{
		"total":        s.TotalRequests,
		"success_rate": s.SuccessRate,
		"recent_rate":  s.RecentRate,
	}).Info("Request stats")
}
