package repository

import "time"

// UTCDay returns the UTC calendar day (YYYY-MM-DD) for a timestamp.
// Crypto trades around the clock, so days roll over at UTC midnight.
func UTCDay(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// UTCDayNow returns the UTC calendar day for the current moment.
func UTCDayNow() string {
	return UTCDay(time.Now())
}
