package memory

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// noLimit is what the runtime reports when no memory limit is set.
const noLimit = math.MaxInt64

// Config holds the monitor's thresholds.
type Config struct {
	// Limit is the heap budget in bytes. Zero means use the runtime's
	// memory limit, if any.
	Limit int64

	// HighWaterMark is the usage fraction below which a paused warmup resumes.
	HighWaterMark float64

	// CriticalWaterMark is the usage fraction at which warmup pauses.
	CriticalWaterMark float64

	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses warmup under memory pressure.
type Monitor struct {
	config   Config
	limit    int64
	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	alloc  uint64
	paused bool
	resume chan struct{}
}

// NewMonitor creates a monitor. Without a limit in config or in the runtime
// the monitor is disabled.
func NewMonitor(config Config) *Monitor {
	defaults := DefaultConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if config.CriticalWaterMark <= 0 || config.CriticalWaterMark > 1 {
		config.CriticalWaterMark = defaults.CriticalWaterMark
	}
	if config.HighWaterMark <= 0 || config.HighWaterMark >= config.CriticalWaterMark {
		config.HighWaterMark = config.CriticalWaterMark * 0.8
	}

	limit := config.Limit
	if limit <= 0 {
		if current := setMemoryLimit(-1); current > 0 && current < noLimit {
			limit = current
		} else {
			limit = 0
		}
	}

	return &Monitor{
		config: config,
		limit:  limit,
		stop:   make(chan struct{}),
		resume: make(chan struct{}),
	}
}

// Enabled reports whether the monitor has a limit to enforce.
func (m *Monitor) Enabled() bool {
	return m.limit > 0
}

// Limit returns the heap budget in bytes, or 0 when disabled.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start begins sampling. It does nothing when the monitor is disabled.
func (m *Monitor) Start() {
	if !m.Enabled() {
		logging.Debug("Memory monitor disabled: no memory limit configured")
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any waiters. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.update(stats.HeapAlloc)
		case <-m.stop:
			return
		}
	}
}

// update records a heap sample and moves between the running and paused
// states. The gap between the two water marks keeps it from flapping.
func (m *Monitor) update(alloc uint64) {
	if !m.Enabled() {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = alloc

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing warmup", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming warmup", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while memory usage is critical. It returns ctx.Err() if ctx
// ends first and nil once work may proceed or the monitor is stopped.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether warmup is currently held back.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if !m.Enabled() {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}
