package pricing

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// LateHour is the hour from which a pickup no longer counts as a rental
	// day and a return counts as an extra day.
	LateHour = 17
)

// RentalDays returns the billable number of days for a rental window.
// Missing or malformed input yields the one-day minimum.
func RentalDays(startDate, endDate, startTime, endTime string) int {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 1
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 1
	}
	days := int(end.Sub(start).Hours() / 24)
	if h, ok := hourOf(startTime); ok && h >= LateHour {
		days--
	}
	if h, ok := hourOf(endTime); ok && h >= LateHour {
		days++
	}
	if days < 1 {
		return 1
	}
	return days
}

// hourOf extracts the hour from an "HH:MM" string.
func hourOf(hhmm string) (int, bool) {
	hh, _, found := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
