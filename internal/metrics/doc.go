// Package metrics provides Prometheus instrumentation for the photo gallery.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "photo_gallery_". They are served on a dedicated port by
// the main program.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Thumbnail Cache Metrics
//
//   - ThumbnailCacheHits / ThumbnailCacheMisses: store lookups on the request path
//   - ThumbnailRendersTotal: Counter of renders by status
//   - ThumbnailRenderDuration: Histogram of render time
//   - ThumbnailSharedRendersTotal: requests that joined a render already in flight
//   - ThumbnailDigestsTotal / ThumbnailDigestDuration: source hashing
//   - ThumbnailStoreWritesTotal: Counter of store writes by status
//   - ThumbnailIndexSize, ThumbnailStoreCount, ThumbnailStoreSize: gauges
//     refreshed by the Collector
//
// ## Warmup Metrics
//
//   - WarmupRunning: Gauge indicating if the startup warmup is active
//   - WarmupItemsTotal: Counter of photos by status (rendered/cached/failed)
//   - WarmupLastDuration / WarmupLastTimestamp: last completed run
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer returned by NewFilesystemObserver:
//   - FilesystemOperationDuration / FilesystemOperationErrors by volume and operation
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemStaleErrors: NFS stale file handle errors
//
// # Collector
//
// Gauges that describe the cache as a whole are sampled periodically by a
// Collector from a StatsProvider:
//
//	collector := metrics.NewCollector(metrics.StatsFunc(engine.Stats), time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
