package stations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chintai-crawler/pkg/utils"
)

func TestURL(t *testing.T) {
	tests := []struct {
		name       string
		station    string
		prefecture string
		want       string
		wantErr    bool
	}{
		{"yamanote station", "渋谷", "tokyo", "https://suumo.jp/chintai/tokyo/ek_17640/", false},
		{"chuo line station", "吉祥寺", "tokyo", "https://suumo.jp/chintai/tokyo/ek_11640/", false},
		{"kanagawa station", "横浜", "kanagawa", "https://suumo.jp/chintai/kanagawa/ek_40940/", false},
		{"unknown station", "存在しない駅", "tokyo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := URL(tt.station, tt.prefecture)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, utils.ErrUnknownStation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupported(t *testing.T) {
	names := Supported()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "渋谷")
	assert.Contains(t, names, "吉祥寺")
	assert.Contains(t, names, "横浜")

	// Sorted, no duplicates.
	seen := make(map[string]bool)
	prev := ""
	for _, n := range names {
		assert.False(t, seen[n], "duplicate station %q", n)
		assert.LessOrEqual(t, prev, n)
		seen[n] = true
		prev = n
	}

	// Every supported name must resolve.
	for _, n := range names {
		_, err := URL(n, "tokyo")
		require.NoError(t, err, "station %q listed as supported but does not resolve", n)
	}
}

func TestYamanote(t *testing.T) {
	names := Yamanote()
	assert.Len(t, names, 29)
	for _, n := range names {
		assert.True(t, IsYamanote(n))
	}
	assert.False(t, IsYamanote("吉祥寺"))
}
