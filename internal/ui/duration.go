package ui

import (
	"strconv"
	"time"
)

// FormatDuration formats a duration to a short human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}

	seconds := int64(d / time.Second)
	if seconds < 60 {
		return formatUnit(seconds, "s")
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if minutes < 60 {
		if remainingSeconds == 0 {
			return formatUnit(minutes, "m")
		}
		return formatUnit(minutes, "m") + " " + formatUnit(remainingSeconds, "s")
	}

	hours := minutes / 60
	remainingMinutes := minutes % 60
	if remainingMinutes == 0 {
		return formatUnit(hours, "h")
	}
	return formatUnit(hours, "h") + " " + formatUnit(remainingMinutes, "m")
}

func formatUnit(n int64, unit string) string {
	return strconv.FormatInt(n, 10) + unit
}
