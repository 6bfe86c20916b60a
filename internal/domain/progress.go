package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DurationSeconds parses an ffmpeg "hh:mm:ss.ff" timestamp into total
// seconds. Malformed input parses as 0.
func DurationSeconds(ts string) float64 {
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0
	}
	hr, _ := strconv.ParseFloat(parts[0], 64)
	min, _ := strconv.ParseFloat(parts[1], 64)
	sec, _ := strconv.ParseFloat(parts[2], 64)
	return hr*3600 + min*60 + sec
}

// ConvertPercent derives the convert-stage percentage from the processor's
// time mark over the total media duration, clamped to [0,100].
func ConvertPercent(timeMark, duration string) int {
	total := DurationSeconds(duration)
	if total <= 0 {
		return 0
	}
	pct := int(DurationSeconds(timeMark) / total * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// HumanSizeKB renders a size reported in kilobytes as "N kb", "N.NN mb" or
// "N.NN gb" on the binary scale. The mb figure is computed from the
// remainder below one gb, matching the progress strings clients parse.
func HumanSizeKB(sizeKB int) string {
	const (
		mbKB = 1024
		gbKB = 1024 * 1024
	)
	gb := float64(sizeKB) / gbKB
	mb := float64(sizeKB%gbKB) / mbKB
	switch {
	case gb >= 1:
		return fmt.Sprintf("%.2f gb", gb)
	case mb >= 1:
		return fmt.Sprintf("%.2f mb", mb)
	default:
		return fmt.Sprintf("%d kb", sizeKB)
	}
}
