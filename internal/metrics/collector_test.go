package metrics

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStatsProvider struct {
	calls atomic.Int32
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	m.calls.Add(1)
	return m.stats
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 5*time.Second)

	require.NotNil(t, collector)
	assert.Equal(t, provider, collector.statsProvider)
	assert.Equal(t, 5*time.Second, collector.interval)
	assert.NotNil(t, collector.stopChan)
}

func TestCollectorCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		IndexedPhotos:    12,
		StoredThumbnails: 9,
		StoreBytes:       4096,
	}}
	collector := NewCollector(provider, time.Hour)

	collector.collect()

	assert.Equal(t, float64(12), readValue(t, ThumbnailIndexSize))
	assert.Equal(t, float64(9), readValue(t, ThumbnailStoreCount))
	assert.Equal(t, float64(4096), readValue(t, ThumbnailStoreSize))
}

func TestCollectorWithNilProvider(_ *testing.T) {
	collector := NewCollector(nil, time.Hour)
	collector.collect() // must not panic
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	assert.Eventually(t, func() bool {
		return provider.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	collector.Stop()
	collector.Stop()
}

func TestStatsFunc(t *testing.T) {
	var p StatsProvider = StatsFunc(func() Stats {
		return Stats{IndexedPhotos: 3}
	})
	assert.Equal(t, 3, p.GetStats().IndexedPhotos)
}
