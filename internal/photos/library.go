package photos

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/mediatypes"
)

// Page sizes used when the caller supplies none.
const (
	// DefaultPageSize is the page size for requests that do not ask for one.
	DefaultPageSize = 12
	// MaxPageSize caps the page size a request may ask for.
	MaxPageSize = 100
)

// Photo is the public description of one photo.
type Photo struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FullSizeURL  string `json:"fullSizeUrl"`
}

// PhotoPage is one page of the listing. Page is 0-based.
type PhotoPage struct {
	Photos        []Photo `json:"photos"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalPages    int     `json:"totalPages"`
	TotalElements int     `json:"totalElements"`
}

// Library serves photos from a single flat directory.
type Library struct {
	dir         string
	defaultSize int
	maxSize     int
	retry       filesystem.RetryConfig
}

// NewLibrary returns a Library for dir. Non-positive page sizes fall back
// to DefaultPageSize and MaxPageSize.
func NewLibrary(dir string, defaultSize, maxSize int) *Library {
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return &Library{
		dir:         dir,
		defaultSize: defaultSize,
		maxSize:     maxSize,
		retry:       filesystem.DefaultRetryConfig(),
	}
}

// Dir returns the photo directory.
func (l *Library) Dir() string {
	return l.dir
}

type entry struct {
	name    string
	modTime time.Time
}

// entries returns the allow-listed regular files, newest first.
func (l *Library) entries() ([]entry, error) {
	dirEntries, err := filesystem.ReadDirWithRetry(l.dir, l.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", l.dir, err)
	}

	result := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !mediatypes.IsImageFile(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue // removed since ReadDir
		}
		result = append(result, entry{name: de.Name(), modTime: info.ModTime()})
	}

	slices.SortFunc(result, func(a, b entry) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return result, nil
}

// List returns every photo identifier, newest first. A missing directory
// has no photos.
func (l *Library) List() ([]string, error) {
	ents, err := l.entries()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ents))
	for i, e := range ents {
		ids[i] = e.name
	}
	return ids, nil
}

// Page returns one page of the listing. Out of range pages are clamped to
// the nearest valid page and sizes to [1, max].
func (l *Library) Page(page, size int) (PhotoPage, error) {
	switch {
	case size < 1:
		size = l.defaultSize
	case size > l.maxSize:
		size = l.maxSize
	}

	ids, err := l.List()
	if err != nil {
		return PhotoPage{}, err
	}

	total := len(ids)
	totalPages := (total + size - 1) / size

	if page < 0 {
		page = 0
	} else if page >= totalPages {
		page = max(totalPages-1, 0)
	}

	start := min(page*size, total)
	end := min(start+size, total)

	photos := make([]Photo, 0, end-start)
	for _, id := range ids[start:end] {
		photos = append(photos, newPhoto(id, id))
	}

	return PhotoPage{
		Photos:        photos,
		Page:          page,
		Size:          size,
		TotalPages:    totalPages,
		TotalElements: total,
	}, nil
}

// Get describes the photo id resolves to. The returned ID is id as given,
// which may differ from the filename after a basename fallback.
func (l *Library) Get(id string) (Photo, error) {
	path, err := l.Resolve(id)
	if err != nil {
		return Photo{}, err
	}
	return newPhoto(id, filepath.Base(path)), nil
}

func newPhoto(id, filename string) Photo {
	escaped := url.PathEscape(id)
	return Photo{
		ID:           id,
		Filename:     filename,
		ThumbnailURL: "/api/photos/" + escaped + "/thumbnail",
		FullSizeURL:  "/api/photos/" + escaped + "/full",
	}
}

func notFound(id string) error {
	return fmt.Errorf("photo %q: %w", id, fs.ErrNotExist)
}

// Resolve returns the path of the file id refers to: the exact filename if
// it is an allow-listed regular file, otherwise the first allow-listed file,
// by name, with the same basename. Errors for unknown photos wrap
// fs.ErrNotExist.
func (l *Library) Resolve(id string) (string, error) {
	if !validID(id) {
		return "", notFound(id)
	}

	exact := filepath.Join(l.dir, id)
	if mediatypes.IsImageFile(id) {
		info, err := filesystem.StatWithRetry(exact, l.retry)
		if err == nil && info.Mode().IsRegular() {
			return exact, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", exact, err)
		}
	}

	dirEntries, err := filesystem.ReadDirWithRetry(l.dir, l.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound(id)
		}
		return "", fmt.Errorf("list %s: %w", l.dir, err)
	}

	// ReadDir returns entries sorted by name.
	want := mediatypes.NameWithoutExtension(id)
	for _, de := range dirEntries {
		name := de.Name()
		if !de.Type().IsRegular() || !mediatypes.IsImageFile(name) {
			continue
		}
		if mediatypes.NameWithoutExtension(name) == want {
			return filepath.Join(l.dir, name), nil
		}
	}
	return "", notFound(id)
}

// ReadFile reads a file previously returned by Resolve.
func (l *Library) ReadFile(location string) ([]byte, error) {
	return filesystem.ReadFileWithRetry(location, l.retry)
}

// ReadSource resolves id and returns the photo's raw bytes together with
// the resolved filename.
func (l *Library) ReadSource(id string) ([]byte, string, error) {
	path, err := l.Resolve(id)
	if err != nil {
		return nil, "", err
	}
	data, err := l.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(path), nil
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsRune(id, 0)
}
