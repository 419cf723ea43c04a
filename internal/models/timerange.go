package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRange is returned when a range string is not one of the
// supported windows.
var ErrUnknownRange = errors.New("unknown time range")

// TimeRange is a user-selectable charting window.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range1w  TimeRange = "1w"
	Range1m  TimeRange = "1m"
	Range6m  TimeRange = "6m"
	Range1y  TimeRange = "1y"
	Range3y  TimeRange = "3y"
	RangeMax TimeRange = "max"
)

// Ranges lists all supported windows in display order.
func Ranges() []TimeRange {
	return []TimeRange{Range24h, Range1w, Range1m, Range6m, Range1y, Range3y, RangeMax}
}

// ParseRange validates a range string from a query parameter.
func ParseRange(s string) (TimeRange, error) {
	r := TimeRange(s)
	switch r {
	case Range24h, Range1w, Range1m, Range6m, Range1y, Range3y, RangeMax:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Window returns the lookback duration, or 0 for RangeMax (all available history).
func (r TimeRange) Window() time.Duration {
	switch r {
	case Range24h:
		return 24 * time.Hour
	case Range1w:
		return 7 * 24 * time.Hour
	case Range1m:
		return 30 * 24 * time.Hour
	case Range6m:
		return 182 * 24 * time.Hour
	case Range1y:
		return 365 * 24 * time.Hour
	case Range3y:
		return 3 * 365 * 24 * time.Hour
	}
	return 0
}

// Interval returns the candle interval: 5-minute candles intraday,
// hourly for a week, daily beyond that.
func (r TimeRange) Interval() time.Duration {
	switch r {
	case Range24h:
		return 5 * time.Minute
	case Range1w:
		return time.Hour
	}
	return 24 * time.Hour
}
