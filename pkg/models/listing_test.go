package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYen(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"man-yen suffix", "8.5万円", 85000, true},
		{"integer man-yen", "12万円", 120000, true},
		{"plain yen", "12000円", 12000, true},
		{"comma separated", "120,000円", 120000, true},
		{"bare small number treated as man", "7.3", 73000, true},
		{"dash", "-", 0, false},
		{"empty", "", 0, false},
		{"no digits", "要相談", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseYen(tt.in)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"m2 suffix", "25.5m²", 25.5, true},
		{"square meter glyph", "30㎡", 30, true},
		{"empty", "", 0, false},
		{"no digits", "広め", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArea(tt.in)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseBuildingAge(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
		ok   bool
	}{
		{"aged", "築12年 3階建", 12, true},
		{"new construction", "新築 2階建", 0, true},
		{"empty", "", 0, false},
		{"no age info", "3階建 30m²", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBuildingAge(tt.in)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseNearbyStations(t *testing.T) {
	got := ParseNearbyStations("ＪＲ山手線/渋谷駅 歩5分\n東京メトロ副都心線/明治神宮前駅 歩8分")
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "渋谷駅")
	assert.Contains(t, got[1], "明治神宮前駅")

	assert.Nil(t, ParseNearbyStations(""))
	assert.Nil(t, ParseNearbyStations("バス15分"))
}

func TestListingDerive(t *testing.T) {
	l := Listing{
		Rent:            "9.8万円",
		AdminFee:        "5000円",
		Area:            "28.4m²",
		BuildingAgeArea: "築5年 10階建",
		Access:          "ＪＲ山手線/恵比寿駅 歩4分",
	}
	l.Derive()

	require.NotNil(t, l.RentYen)
	assert.Equal(t, 98000.0, *l.RentYen)
	require.NotNil(t, l.AdminFeeYen)
	assert.Equal(t, 5000.0, *l.AdminFeeYen)
	require.NotNil(t, l.AreaSqm)
	assert.Equal(t, 28.4, *l.AreaSqm)
	require.NotNil(t, l.BuildingAgeYears)
	assert.Equal(t, 5, *l.BuildingAgeYears)
	assert.Len(t, l.NearbyStations, 1)
}

func TestListingDerive_DegradesToNil(t *testing.T) {
	var l Listing
	l.Derive()
	assert.Nil(t, l.RentYen)
	assert.Nil(t, l.AdminFeeYen)
	assert.Nil(t, l.AreaSqm)
	assert.Nil(t, l.BuildingAgeYears)
	assert.Nil(t, l.NearbyStations)
}

func TestSessionResultAggregates(t *testing.T) {
	rent1, rent2 := 80000.0, 120000.0
	r := SessionResult{
		Records: []Listing{
			{Layout: "1K", RentYen: &rent1},
			{Layout: "1LDK", RentYen: &rent2},
			{Layout: "1K"},
		},
	}

	avg, ok := r.AverageRentYen()
	require.True(t, ok)
	assert.Equal(t, 100000.0, avg)

	dist := r.LayoutDistribution()
	assert.Equal(t, map[string]int{"1K": 2, "1LDK": 1}, dist)
}

func TestSessionResultAggregates_Empty(t *testing.T) {
	var r SessionResult
	_, ok := r.AverageRentYen()
	assert.False(t, ok)
	assert.Empty(t, r.LayoutDistribution())
}
