package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatCount formats an integer with thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// FormatSimilarity formats a similarity score with four decimals.
func FormatSimilarity(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// FormatThreshold formats a threshold the shortest way that round-trips.
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
