package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// ParseBytes parses a byte size string like "4MB", "500KiB" or "2.5G".
// SI suffixes are powers of 1000, IEC suffixes (KiB, MiB, ...) powers of 1024.
// An empty string parses to 0.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}

	return int64(n), nil
}

// HumanBytes converts bytes to human-readable format
func HumanBytes(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}

// Ratio returns done/total clamped to [0, 1]; a non-positive total yields 0.
func Ratio(done, total int64) float64 {
	if total <= 0 || done <= 0 {
		return 0
	}
	r := float64(done) / float64(total)
	if r > 1.0 {
		return 1.0
	}
	return r
}
