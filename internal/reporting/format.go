package reporting

import (
	"fmt"
	"time"
)

// roundTripLayout matches the .NET "o" format: seven fractional digits and
// either Z or a numeric offset.
const roundTripLayout = "2006-01-02T15:04:05.0000000Z07:00"

// formatTime formats t the way TRX consumers expect timestamps.
func formatTime(t time.Time) string {
	return t.Format(roundTripLayout)
}

// formatDuration formats d as a TimeSpan: [-][d.]hh:mm:ss[.fffffff].
// The fraction is omitted when it is zero.
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	ticks := int64(d / 100) // 100ns ticks
	fraction := ticks % 10_000_000
	seconds := ticks / 10_000_000

	days := seconds / 86400
	hours := (seconds / 3600) % 24
	minutes := (seconds / 60) % 60
	secs := seconds % 60

	s := sign
	if days > 0 {
		s += fmt.Sprintf("%d.", days)
	}
	s += fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	if fraction > 0 {
		s += fmt.Sprintf(".%07d", fraction)
	}
	return s
}
