package models

import (
	"time"

	"chintai-crawler/pkg/polite"
)

// SessionResult is the complete outcome of one crawl session: every accepted
// record in collection order plus per-station accounting and the request
// monitor's final snapshot.
type SessionResult struct {
	SessionID        string         `json:"session_id"`
	Stations         []string       `json:"stations"`
	Quota            int            `json:"quota"`
	Records          []Listing      `json:"records"`
	PerStationCounts map[string]int `json:"per_station_counts"`
	PagesFetched     int            `json:"pages_fetched"`
	ExtractionErrors int            `json:"extraction_errors"`
	RequestStats     polite.Stats   `json:"request_stats"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
}

// AverageRentYen returns the mean derived rent across all records. The
// second return is false when no record carried a parseable rent.
func (r *SessionResult) AverageRentYen() (float64, bool) {
	var sum float64
	var n int
	for i := range r.Records {
		if r.Records[i].RentYen != nil {
			sum += *r.Records[i].RentYen
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// LayoutDistribution counts records per layout string (1K, 1LDK, ...).
func (r *SessionResult) LayoutDistribution() map[string]int {
	dist := make(map[string]int)
	for i := range r.Records {
		if layout := r.Records[i].Layout; layout != "" {
			dist[layout]++
		}
	}
	return dist
}
