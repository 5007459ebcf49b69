// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// AddMonths advances t by the given number of calendar months.
// Month arithmetic follows time.AddDate, so renewals do not drift
// across months of different lengths the way fixed 30-day windows do.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// IsExpired checks if the given time is in the past (expired)
func IsExpired(t time.Time) bool {
	return UTCNow().After(t)
}

// IsExpiredPtr checks if the given time pointer is in the past (expired)
func IsExpiredPtr(t *time.Time) bool {
	if t == nil {
		return false
	}
	return IsExpired(*t)
}
