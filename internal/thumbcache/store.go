package thumbcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"
	"photo-gallery/internal/metrics"
)

const (
	tempPrefix = ".tmp-"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// Store is a flat directory of rendered thumbnails named <digest>.jpg.
// A file that exists at a digest path is complete and correct for that
// digest; files are never modified or deleted once published.
type Store struct {
	root  string
	retry filesystem.RetryConfig
}

// NewStore returns a Store rooted at root. The directory is not created
// until EnsureRootExists is called.
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		// No retry budget: operations are still observed, but failures
		// surface to the caller on the first attempt.
		retry: filesystem.RetryConfig{},
	}
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureRootExists creates the store directory if it is absent.
func (s *Store) EnsureRootExists() error {
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		return &StartupError{Path: s.root, Err: err}
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return &StartupError{Path: s.root, Err: err}
	}
	if !info.IsDir() {
		return &StartupError{Path: s.root, Err: errors.New("not a directory")}
	}
	return nil
}

// Path returns the file path for d. It does not validate d.
func (s *Store) Path(d ContentDigest) string {
	return filepath.Join(s.root, string(d)+mediatypes.ThumbnailExtension)
}

// Exists reports whether a regular file is published for d. Malformed
// digests never exist.
func (s *Store) Exists(d ContentDigest) bool {
	if d.Validate() != nil {
		return false
	}
	info, err := filesystem.StatWithRetry(s.Path(d), s.retry)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the thumbnail stored for d. It fails with ErrNotFound when
// nothing is published for d.
func (s *Store) Read(d ContentDigest) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid digest %q", ErrNotFound, d)
	}
	path := s.Path(d)
	data, err := filesystem.ReadFileWithRetry(path, s.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: thumbnail %s", ErrNotFound, d.Short())
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Write publishes data as the thumbnail for d. The bytes go to a temporary
// file in the store directory, synced, then renamed into place, so readers
// see either no file or the complete one. Racing writers of the same digest
// are harmless: content addressing makes their bytes equivalent.
func (s *Store) Write(d ContentDigest, data []byte) (err error) {
	if verr := d.Validate(); verr != nil {
		return &IOError{Op: "write", Path: string(d), Err: verr}
	}
	path := s.Path(d)
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ThumbnailStoreWritesTotal.WithLabelValues(status).Inc()
	}()

	tmp, err := os.CreateTemp(s.root, tempPrefix+string(d)+"-*")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	// Flush before the rename so a published name never points at lost data.
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &IOError{Op: "write", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		// Another writer published the same digest first.
		if info, statErr := os.Stat(path); statErr == nil && info.Mode().IsRegular() {
			return nil
		}
		return &IOError{Op: "write", Path: path, Err: err}
	}

	logging.Debug("Thumbnail stored: %s (%d bytes)", path, len(data))
	return nil
}

// Usage returns the number of published thumbnails and their total size.
// Temporary files and anything not named <digest>.jpg are ignored.
func (s *Store) Usage() (files int, size int64, err error) {
	entries, err := filesystem.ReadDirWithRetry(s.root, s.retry)
	if err != nil {
		return 0, 0, &IOError{Op: "readdir", Path: s.root, Err: err}
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isThumbnailName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed out from under us
		}
		files++
		size += info.Size()
	}
	return files, size, nil
}

// PurgeTemp removes temporary files older than maxAge, left behind by
// writers that died between create and rename. It returns the number of
// files removed.
func (s *Store) PurgeTemp(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		logging.Warn("Thumbnail store: cannot list %s for temp cleanup: %v", s.root, err)
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, entry.Name())); err != nil {
			logging.Warn("Thumbnail store: failed to remove stale temp file %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed
}

func isThumbnailName(name string) bool {
	base, ok := strings.CutSuffix(name, mediatypes.ThumbnailExtension)
	return ok && ContentDigest(base).Validate() == nil
}
