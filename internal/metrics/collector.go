package metrics

import (
	"sync"
	"time"

	"photo-gallery/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// StatsFunc adapts a function to a StatsProvider.
type StatsFunc func() Stats

// GetStats calls f.
func (f StatsFunc) GetStats() Stats {
	return f()
}

// Stats holds the current thumbnail cache statistics
type Stats struct {
	IndexedPhotos    int
	StoredThumbnails int
	StoreBytes       int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ThumbnailIndexSize.Set(float64(stats.IndexedPhotos))
	ThumbnailStoreCount.Set(float64(stats.StoredThumbnails))
	ThumbnailStoreSize.Set(float64(stats.StoreBytes))

	logging.Debug("Metrics collected: indexed=%d, thumbnails=%d, bytes=%d",
		stats.IndexedPhotos, stats.StoredThumbnails, stats.StoreBytes)
}
