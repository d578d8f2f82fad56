package memory

import (
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"photo-gallery/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest covers libvips buffers and goroutine stacks.
const DefaultMemoryRatio = 0.85

// Limit sources reported in LimitResult.Source.
const (
	SourceGoMemLimit  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// LimitResult describes how the Go memory limit was configured.
type LimitResult struct {
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a memory limit is in effect.
func (r LimitResult) Configured() bool {
	return r.GoMemLimit > 0
}

// setMemoryLimit is replaced in tests.
var setMemoryLimit = debug.SetMemoryLimit

// ConfigureFromEnv applies GOMEMLIMIT, MEMORY_LIMIT and MEMORY_RATIO. Call
// it early in main, before significant allocations.
func ConfigureFromEnv() LimitResult {
	result := configure(os.Getenv("GOMEMLIMIT"), os.Getenv("MEMORY_LIMIT"), os.Getenv("MEMORY_RATIO"))

	switch result.Source {
	case SourceGoMemLimit:
		logging.Info("  GOMEMLIMIT set via environment: %s", formatBytes(result.GoMemLimit))
	case SourceMemoryLimit:
		logging.Info("  GOMEMLIMIT: %s (%.0f%% of %s container limit)",
			formatBytes(result.GoMemLimit), result.Ratio*100, formatBytes(result.ContainerLimit))
	default:
		logging.Debug("  MEMORY_LIMIT not set, GOMEMLIMIT not configured")
	}
	return result
}

func configure(goMemLimit, containerLimit, ratio string) LimitResult {
	if goMemLimit != "" {
		// The runtime already parsed GOMEMLIMIT at startup.
		current := setMemoryLimit(-1)
		if current <= 0 || current == noLimit {
			return LimitResult{Source: SourceNone}
		}
		return LimitResult{Source: SourceGoMemLimit, GoMemLimit: current}
	}

	limit, err := parseBytes(containerLimit)
	if err != nil {
		if containerLimit != "" {
			logging.Warn("Invalid MEMORY_LIMIT %q: %v", containerLimit, err)
		}
		return LimitResult{Source: SourceNone}
	}

	r := parseRatio(ratio)
	heap := int64(float64(limit) * r)
	setMemoryLimit(heap)

	return LimitResult{
		Source:         SourceMemoryLimit,
		ContainerLimit: limit,
		GoMemLimit:     heap,
		Ratio:          r,
	}
}

func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

func parseRatio(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("Invalid MEMORY_RATIO %q (want 0.0-1.0), using default %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
