package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return formatTime("2006-01-02", t)
}

// FormatClock renders t as HH:MM:SS.
func FormatClock(t time.Time) string {
	return formatTime("15:04:05", t)
}

// ParseFloatList splits a comma separated list of numbers, e.g. "5.6,45.1,5.8,45.2".
func ParseFloatList(s string, want int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d comma separated values, got %d", want, len(parts))
	}
	out := make([]float64, 0, want)
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
