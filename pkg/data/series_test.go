package data

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyRoundTrip(t *testing.T) {
	day := time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC)
	key := DayKey(day)
	assert.Equal(t, "2023-07-04", key)

	parsed, err := ParseDay(key)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(day))
}

func TestSeries_PriceOn(t *testing.T) {
	series := Series{
		"2023-01-02": decimal.RequireFromString("3.95"),
	}

	price, ok := series.PriceOn(time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("3.95")))

	_, ok = series.PriceOn(time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestSeries_Bounds(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, _, ok := Series{}.Bounds()
		assert.False(t, ok)
	})

	t.Run("spanning", func(t *testing.T) {
		series := Series{
			"2023-03-15": decimal.New(10, 0),
			"2023-01-02": decimal.New(10, 0),
			"2023-12-29": decimal.New(10, 0),
		}
		first, last, ok := series.Bounds()
		require.True(t, ok)
		assert.Equal(t, "2023-01-02", first)
		assert.Equal(t, "2023-12-29", last)
	})
}
