package stats

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as HH:MM:SS for display
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatSeconds formats a task duration with two decimals, e.g. "1.25s".
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%.2fs", s)
}

// FormatSpeed formats a MiB/s figure for display
func FormatSpeed(mbps float64) string {
	if mbps < 0.005 {
		return "0.00 MB/s"
	}
	return fmt.Sprintf("%.2f MB/s", mbps)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
