package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"photo-gallery/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing slash (e.g., "/photos/")
	name string
}

// NewVolumeResolver creates a resolver from a map of volume name to absolute path:
//
//	NewVolumeResolver(map[string]string{
//	    "photos": "/photos",
//	    "cache":  "/cache",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].path) != len(mounts[j].path) {
			return len(mounts[i].path) > len(mounts[j].path)
		}
		return mounts[i].name < mounts[j].name
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for a given file path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	// Match the directory itself as well as anything under it.
	withSep := absPath + string(filepath.Separator)
	for _, mount := range vr.mounts {
		if strings.HasPrefix(withSep, mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-ESTALE error, or the
// retry budget is exhausted.
func withRetry[T any](operation, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	var result T
	var err error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", operation, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(operation, volume)
				}
			}
			break
		}

		if !isNFSStaleError(err) {
			break
		}

		if obs != nil {
			obs.ObserveStaleError(operation, volume)
		}

		if attempt == config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", operation, config.MaxRetries, path, err)
			if obs != nil {
				obs.ObserveRetryFailure(operation, volume)
			}
			break
		}

		if obs != nil {
			obs.ObserveRetryAttempt(operation, volume)
		}
		logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
			operation, path, backoff, attempt+1, config.MaxRetries)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	if obs != nil {
		obs.ObserveOperation(volume, operation, time.Since(start).Seconds(), err)
	}
	return result, err
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadFileWithRetry performs os.ReadFile with retry logic for NFS stale file handle errors
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	return withRetry("read", path, config, func() ([]byte, error) {
		return os.ReadFile(path) //nolint:gosec // callers resolve path inside a configured root
	})
}

// ReadDirWithRetry performs os.ReadDir with retry logic for NFS stale file handle errors
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
