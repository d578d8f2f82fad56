package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error"} {
		ThumbnailRendersTotal.WithLabelValues(status)
		ThumbnailStoreWritesTotal.WithLabelValues(status)
	}

	for _, status := range []string{"rendered", "cached", "failed"} {
		WarmupItemsTotal.WithLabelValues(status)
	}

	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := []string{"photos", "cache", "unknown"}
	ops := []string{"stat", "read", "readdir"}

	for _, vol := range volumes {
		for _, op := range ops {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
