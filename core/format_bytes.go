package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Byte size constants for human-readable formatting.
// Using binary units (1024 base) as is standard for file sizes.
const (
	BytesPerKB int64 = 1024
	BytesPerMB int64 = 1024 * BytesPerKB
	BytesPerGB int64 = 1024 * BytesPerMB
	BytesPerTB int64 = 1024 * BytesPerGB
)

var byteUnits = []struct {
	size   int64
	suffix string
}{
	{BytesPerTB, "TB"},
	{BytesPerGB, "GB"},
	{BytesPerMB, "MB"},
	{BytesPerKB, "KB"},
}

// FormatBytes converts a byte count to a human-readable string with two
// decimals, e.g. "1.50 KB". Negative values format as "0 B".
//
// This is a pure function with no side effects.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	for _, u := range byteUnits {
		if bytes >= u.size {
			return fmt.Sprintf("%.2f %s", float64(bytes)/float64(u.size), u.suffix)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}

// ParseBytes converts a size such as "20MB", "1.5 GB" or "512" to bytes.
// Units are case-insensitive and the trailing B is optional ("20M").
//
// This is a pure function with no side effects.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	numEnd := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if numEnd == -1 {
		numEnd = len(s)
	}
	if numEnd == 0 {
		return 0, fmt.Errorf("invalid size %q: no number found", s)
	}

	value, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[numEnd:]))
	multiplier := int64(1)
	switch unit {
	case "", "B":
	case "KB", "K":
		multiplier = BytesPerKB
	case "MB", "M":
		multiplier = BytesPerMB
	case "GB", "G":
		multiplier = BytesPerGB
	case "TB", "T":
		multiplier = BytesPerTB
	default:
		return 0, fmt.Errorf("invalid size %q: unknown unit %q", s, unit)
	}
	return int64(value * float64(multiplier)), nil
}
