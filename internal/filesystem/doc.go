/*
Package filesystem wraps the filesystem calls used by the photo scanner and the
thumbnail store with retry logic for NFS stale file handle errors.

Photo directories are frequently NFS or SMB mounts. A server-side change can
invalidate a cached file handle, and the next stat or read fails with ESTALE
(errno 116 on Linux) even though the file is still there. Those errors are
retried with capped exponential backoff; every other error is returned
immediately.

# Usage

	cfg := filesystem.DefaultRetryConfig()

	info, err := filesystem.StatWithRetry("/photos/a.jpg", cfg)
	data, err := filesystem.ReadFileWithRetry("/photos/a.jpg", cfg)
	entries, err := filesystem.ReadDirWithRetry("/photos", cfg)

# Defaults

  - MaxRetries: 3
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

# Observability

Each call reports its duration and outcome to the package-level [Observer],
labelled with a volume name ("photos", "cache") resolved by longest-prefix
match through [VolumeResolver]. The metrics package provides the Prometheus
implementation; with no observer set, reporting is skipped.
*/
package filesystem
