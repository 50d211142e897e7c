// Package units provides shared time formatting for the review timeline.
//
// The observation log export, the log import and the go-to-time operation all
// exchange timeline positions as HH:MM:SS strings; keeping the conversion in
// one place keeps the formats symmetric.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatHMS renders a timeline position in seconds as HH:MM:SS.
// Fractional seconds are floored; negative input renders as 00:00:00.
func FormatHMS(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseHMS parses an HH:MM:SS string into seconds. Minutes and seconds must
// be below 60; hours are unbounded (sessions can exceed a day).
func ParseHMS(v string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM:SS", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", v, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("invalid time %q: negative component", v)
		}
		nums[i] = n
	}
	if nums[1] > 59 || nums[2] > 59 {
		return 0, fmt.Errorf("invalid time %q: minutes and seconds must be < 60", v)
	}
	return ClockSeconds(nums[0], nums[1], nums[2]), nil
}

// ClockSeconds converts an hours/minutes/seconds triple to seconds.
func ClockSeconds(h, m, s int) float64 {
	return float64(h*3600 + m*60 + s)
}
