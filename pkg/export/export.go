// Package export writes session results to disk as JSON and flat CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chintai-crawler/pkg/models"
	"chintai-crawler/pkg/utils"
)

// DefaultBasename builds a timestamped file stem from the crawled stations,
// e.g. "chintai_shinjuku-shibuya_20250115_093000". Station names are
// sanitized for the filesystem and long lists are abbreviated.
func DefaultBasename(stationList []string, now time.Time) string {
	label := "session"
	if len(stationList) > 0 {
		shown := stationList
		extra := 0
		if len(shown) > 3 {
			extra = len(shown) - 3
			shown = shown[:3]
		}
		parts := make([]string, 0, len(shown))
		for _, s := range shown {
			parts = append(parts, utils.SanitizeFilename(s))
		}
		label = strings.Join(parts, "-")
		if extra > 0 {
			label += fmt.Sprintf("-and-%d-more", extra)
		}
	}
	return fmt.Sprintf("chintai_%s_%s", label, now.Format("20060102_150405"))
}

// WriteJSON writes the full session result, request statistics included, as
// indented JSON. The parent directory is created if needed.
func WriteJSON(res *models.SessionResult, path string, log *logrus.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{"path": path, "records": len(res.Records)}).Info("Wrote JSON export")
	return nil
}

var csvHeader = []string{
	"station", "title", "address", "access", "building_age_area", "floor",
	"rent", "rent_yen", "admin_fee", "admin_fee_yen", "deposit_key_money",
	"layout", "area", "area_sqm", "building_age_years", "nearby_stations",
	"detail_url", "scraped_at",
}

// WriteCSV writes the records as a flat CSV with one row per listing.
// Derived fields that could not be parsed are left as empty cells.
func WriteCSV(records []models.Listing, path string, log *logrus.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i := range records {
		if err := w.Write(csvRow(&records[i])); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{"path": path, "records": len(records)}).Info("Wrote CSV export")
	return nil
}

func csvRow(l *models.Listing) []string {
	return []string{
		l.Station,
		l.Title,
		l.Address,
		l.Access,
		l.BuildingAgeArea,
		l.Floor,
		l.Rent,
		formatFloat(l.RentYen),
		l.AdminFee,
		formatFloat(l.AdminFeeYen),
		l.DepositKeyMoney,
		l.Layout,
		l.Area,
		formatFloat(l.AreaSqm),
		formatInt(l.BuildingAgeYears),
		strings.Join(l.NearbyStations, " / "),
		l.DetailURL,
		l.ScrapedAt.Format(time.RFC3339),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
