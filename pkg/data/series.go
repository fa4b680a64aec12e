package data

import (
	"time"

	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// DayKey formats a timestamp as the canonical "YYYY-MM-DD" series key.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseDay parses a canonical series key back into a UTC midnight time.
func ParseDay(key string) (time.Time, error) {
	return time.Parse(dayLayout, key)
}

// Series maps "YYYY-MM-DD" day keys to closing prices. Lexical key order is
// chronological order.
type Series map[string]decimal.Decimal

// PriceOn returns the price for the given day and whether one exists.
func (s Series) PriceOn(day time.Time) (decimal.Decimal, bool) {
	price, ok := s[DayKey(day)]
	return price, ok
}

// Bounds returns the first and last day keys present, or ok=false for an
// empty series.
func (s Series) Bounds() (first, last string, ok bool) {
	for key := range s {
		if !ok {
			first, last, ok = key, key, true
			continue
		}
		if key < first {
			first = key
		}
		if key > last {
			last = key
		}
	}
	return first, last, ok
}

// PriceData holds one series per symbol.
type PriceData map[string]Series
