// Package metrics exposes Prometheus instrumentation for the crawl session.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_requests_total",
			Help: "Total number of gated requests by pacing class and outcome.",
		},
		[]string{"class", "outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_request_duration_seconds",
			Help:    "Duration of gated requests including retries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)

	RecordsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_collected_total",
			Help: "Listing records accepted into the session, by station.",
		},
		[]string{"station"},
	)

	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Result pages fetched, by station.",
		},
		[]string{"station"},
	)
)

// ObserveRequest records one gated request outcome.
func ObserveRequest(class string, err error, latency time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(class, outcome).Inc()
	RequestDuration.WithLabelValues(class).Observe(latency.Seconds())
}

// Serve starts a /metrics HTTP listener on addr. Blocks; intended to run in
// its own goroutine.
func Serve(addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("Serving Prometheus metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics listener stopped: %v", err)
	}
}
