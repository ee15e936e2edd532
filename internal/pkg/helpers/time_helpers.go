package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// Use the global logger here, assuming logger might not be configured when this is called.
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// MonthStart returns the first calendar day of (year, month) in UTC.
// Payment calculations and department summaries use this as their
// month key.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the half-open interval [first day of the month,
// first day of the next month) for use in date-range queries.
func MonthBounds(year int, month time.Month) (from, to time.Time) {
	from = MonthStart(year, month)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// IsSunday reports whether the date falls on a Sunday.
func IsSunday(d time.Time) bool {
	return d.Weekday() == time.Sunday
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
