package format

import (
	"fmt"
	"time"
)

// FmtSeconds formats a fractional-second duration the way build tools report
// it: whole minutes when it crosses a minute, otherwise one decimal.
func FmtSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d >= time.Minute {
		s := int(d.Seconds())
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// FmtPercent renders a [0,1] ratio as a percentage.
func FmtPercent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// Truncate shortens s to maxLen runes, appending "..." if truncated. Cutting
// on rune boundaries keeps the output valid UTF-8 even when stack traces or
// analysis text carry non-ASCII characters.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
