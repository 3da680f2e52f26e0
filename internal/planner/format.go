package planner

import (
	"fmt"
	"math"
	"time"
)

const notSet = "Not set"

// FormatDuration renders seconds as "1h 1m" or "5m". Zero means unknown.
func FormatDuration(seconds float64) string {
	if seconds == 0 || math.IsNaN(seconds) {
		return notSet
	}
	minutes := int(math.Floor(seconds / 60))
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatDistance renders meters as "950 m" or "1.50 km". Zero means unknown.
func FormatDistance(meters float64) string {
	if meters == 0 || math.IsNaN(meters) {
		return notSet
	}
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// FormatClockTime renders t as 24h HH:MM in loc.
func FormatClockTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return notSet
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04")
}
