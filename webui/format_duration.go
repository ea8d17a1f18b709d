package webui

import (
	"fmt"
	"time"
)

var durationUnits = []struct {
	size   time.Duration
	suffix string
}{
	{7 * 24 * time.Hour, "w"},
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
}

// FormatDuration renders d with its two largest units, e.g. "2h 34m" or
// "45s". Sub-second durations render as "0s".
//
// This is a pure function with no side effects.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	for i, u := range durationUnits[:len(durationUnits)-1] {
		if d >= u.size {
			next := durationUnits[i+1]
			return fmt.Sprintf("%d%s %d%s", d/u.size, u.suffix, (d%u.size)/next.size, next.suffix)
		}
	}
	return fmt.Sprintf("%ds", d/time.Second)
}
