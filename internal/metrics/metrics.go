package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail requests served from the store",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail requests that required a render",
		},
	)

	ThumbnailRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_renders_total",
			Help: "Total number of thumbnail renders",
		},
		[]string{"status"}, // "success", "error"
	)

	ThumbnailRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_thumbnail_render_duration_seconds",
			Help:    "Thumbnail render duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailSharedRendersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_shared_renders_total",
			Help: "Total number of requests that waited on a render already in progress",
		},
	)

	ThumbnailDigestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_digests_total",
			Help: "Total number of source content digests computed",
		},
	)

	ThumbnailDigestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_thumbnail_digest_duration_seconds",
			Help:    "Time spent reading and hashing a source photo in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ThumbnailStoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_thumbnail_store_writes_total",
			Help: "Total number of thumbnail store writes",
		},
		[]string{"status"},
	)

	ThumbnailIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_thumbnail_index_entries",
			Help: "Number of photo identifiers with a known content digest",
		},
	)

	ThumbnailStoreCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_thumbnail_store_count",
			Help: "Number of thumbnails in the store",
		},
	)

	ThumbnailStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_thumbnail_store_size_bytes",
			Help: "Total size of the thumbnail store in bytes",
		},
	)
)

// Warmup metrics
var (
	WarmupRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_warmup_running",
			Help: "Whether the startup warmup is currently running (1 = running, 0 = idle)",
		},
	)

	WarmupItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_warmup_items_total",
			Help: "Total number of photos processed by warmup by status",
		},
		[]string{"status"}, // "rendered", "cached", "failed"
	)

	WarmupLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_warmup_last_duration_seconds",
			Help: "Duration of the last warmup run in seconds",
		},
	)

	WarmupLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_warmup_last_timestamp",
			Help: "Unix timestamp of the last warmup completion",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_gallery_memory_paused",
			Help: "Whether warmup is paused due to memory pressure (1=paused, 0=running)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_gallery_memory_gc_pauses_total",
			Help: "Total number of times warmup was paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_gallery_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_gallery_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_gallery_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
