package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Listing is one room-level rental record extracted from a result page and
// tagged with the station it was searched under. Raw fields keep the page
// text verbatim; derived numeric fields are filled by Derive and stay nil
// when the raw text is absent or unparseable.
type Listing struct {
	Station         string    `json:"station"`
	Title           string    `json:"title"`
	Address         string    `json:"address"`
	Access          string    `json:"access"`
	BuildingAgeArea string    `json:"building_age_area"`
	Floor           string    `json:"floor"`
	Rent            string    `json:"rent"`
	AdminFee        string    `json:"admin_fee"`
	DepositKeyMoney string    `json:"deposit_key_money"`
	Layout          string    `json:"layout"`
	Area            string    `json:"area"`
	DetailURL       string    `json:"detail_url,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at"`

	RentYen          *float64 `json:"rent_yen,omitempty"`
	AdminFeeYen      *float64 `json:"admin_fee_yen,omitempty"`
	AreaSqm          *float64 `json:"area_sqm,omitempty"`
	BuildingAgeYears *int     `json:"building_age_years,omitempty"`
	NearbyStations   []string `json:"nearby_stations,omitempty"`
}

var (
	numericRe     = regexp.MustCompile(`[\d.]+`)
	buildingAgeRe = regexp.MustCompile(`築(\d+)年`)
	stationInfoRe = regexp.MustCompile(`([^/\n]+駅)`)
)

// Derive fills the numeric fields from the raw page text. Missing or
// malformed values leave the corresponding field nil; Derive never fails.
func (l *Listing) Derive() {
	l.RentYen = ParseYen(l.Rent)
	l.AdminFeeYen = ParseYen(l.AdminFee)
	l.AreaSqm = ParseArea(l.Area)
	l.BuildingAgeYears = ParseBuildingAge(l.BuildingAgeArea)
	l.NearbyStations = ParseNearbyStations(l.Access)
}

// ParseYen extracts a yen amount from strings like "8.5万円" or "12000円".
// Amounts below 100 are read as 万円 (the listing site quotes rent that way).
func ParseYen(value string) *float64 {
	if value == "" || value == "-" {
		return nil
	}
	value = strings.NewReplacer("万円", "", "円", "", ",", "", "万", "").Replace(value)

	match := numericRe.FindString(value)
	if match == "" {
		return nil
	}
	num, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	if num < 100 {
		num *= 10000
	}
	return &num
}

// ParseArea extracts square meters from strings like "25.5m²" or "30㎡".
func ParseArea(value string) *float64 {
	if value == "" {
		return nil
	}
	value = strings.NewReplacer("m²", "", "㎡", "").Replace(value)
	match := numericRe.FindString(value)
	if match == "" {
		return nil
	}
	num, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &num
}

// ParseBuildingAge extracts the building age in years from strings like
// "築12年 3階建". 新築 counts as zero years.
func ParseBuildingAge(value string) *int {
	if value == "" {
		return nil
	}
	if m := buildingAgeRe.FindStringSubmatch(value); m != nil {
		age, err := strconv.Atoi(m[1])
		if err == nil {
			return &age
		}
	}
	if strings.Contains(value, "新築") {
		zero := 0
		return &zero
	}
	return nil
}

// ParseNearbyStations extracts station names from an access description like
// "ＪＲ山手線/渋谷駅 歩5分".
func ParseNearbyStations(access string) []string {
	if access == "" {
		return nil
	}
	matches := stationInfoRe.FindAllString(access, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
