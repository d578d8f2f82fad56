package workers

import (
	"runtime"
	"strconv"
	"strings"
)

// Count scales GOMAXPROCS by multiplier: 1.0 suits CPU-bound work and
// larger values suit work that waits on I/O.
//
// limit caps the result; use 0 for no limit. The result is never below 1.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// Override parses an operator-supplied worker count. Empty, non-numeric or
// non-positive values return computed. A valid value is capped at limit when
// limit is positive.
func Override(value string, computed, limit int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return computed
	}
	count, err := strconv.Atoi(value)
	if err != nil || count <= 0 {
		return computed
	}
	if limit > 0 && count > limit {
		return limit
	}
	return count
}
