package utils

import (
	"time"
)

// DateLayout is the calendar-day layout used for ledger and prediction dates.
const DateLayout = "2006-01-02"

// TimeNowUTC returns the current time in UTC.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// TruncateToDate drops the clock part of t, keeping its UTC calendar day.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
