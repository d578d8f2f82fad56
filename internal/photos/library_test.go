package photos

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePhotos creates files in order, each one minute newer than the last.
func writePhotos(t *testing.T, dir string, names ...string) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("data:"+name), 0o644))
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, ts, ts))
	}
}

func TestListNewestFirstAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, "old.jpg", "notes.txt", "middle.PNG", "new.gif", "video.mp4")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.jpg"), 0o755))

	lib := NewLibrary(dir, 0, 0)
	ids, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"new.gif", "middle.PNG", "old.jpg"}, ids)
}

func TestListTiesBrokenByName(t *testing.T) {
	dir := t.TempDir()
	ts := time.Now().Add(-time.Hour)
	for _, name := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, ts, ts))
	}

	ids, err := NewLibrary(dir, 0, 0).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, ids)
}

func TestListMissingDirectory(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "nope"), 0, 0)
	ids, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPage(t *testing.T) {
	dir := t.TempDir()
	// p0 is oldest, p4 newest.
	writePhotos(t, dir, "p0.jpg", "p1.jpg", "p2.jpg", "p3.jpg", "p4.jpg")
	lib := NewLibrary(dir, 2, 3)

	tests := []struct {
		name      string
		page      int
		size      int
		wantPage  int
		wantSize  int
		wantIDs   []string
		wantPages int
	}{
		{"first page", 0, 2, 0, 2, []string{"p4.jpg", "p3.jpg"}, 3},
		{"last partial page", 2, 2, 2, 2, []string{"p0.jpg"}, 3},
		{"negative page clamps to first", -4, 2, 0, 2, []string{"p4.jpg", "p3.jpg"}, 3},
		{"past the end clamps to last", 10, 2, 2, 2, []string{"p0.jpg"}, 3},
		{"zero size uses default", 0, 0, 0, 2, []string{"p4.jpg", "p3.jpg"}, 3},
		{"oversized uses max", 1, 50, 1, 3, []string{"p1.jpg", "p0.jpg"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.Page(tt.page, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantSize, got.Size)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, 5, got.TotalElements)

			ids := make([]string, len(got.Photos))
			for i, p := range got.Photos {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestPageEmptyDirectory(t *testing.T) {
	got, err := NewLibrary(t.TempDir(), 0, 0).Page(3, 12)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Page)
	assert.Equal(t, 0, got.TotalPages)
	assert.Equal(t, 0, got.TotalElements)
	assert.NotNil(t, got.Photos)
	assert.Empty(t, got.Photos)
}

func TestGet(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, "sunset.jpg", "my photo.png")
	lib := NewLibrary(dir, 0, 0)

	p, err := lib.Get("sunset.jpg")
	require.NoError(t, err)
	assert.Equal(t, Photo{
		ID:           "sunset.jpg",
		Filename:     "sunset.jpg",
		ThumbnailURL: "/api/photos/sunset.jpg/thumbnail",
		FullSizeURL:  "/api/photos/sunset.jpg/full",
	}, p)

	p, err = lib.Get("sunset")
	require.NoError(t, err)
	assert.Equal(t, "sunset", p.ID)
	assert.Equal(t, "sunset.jpg", p.Filename)

	p, err = lib.Get("my photo.png")
	require.NoError(t, err)
	assert.Equal(t, "/api/photos/my%20photo.png/thumbnail", p.ThumbnailURL)

	_, err = lib.Get("missing.jpg")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, "b.png", "a.jpg", "b.gif", "doc.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writePhotos(t, filepath.Join(dir, "sub"), "hidden.jpg")
	lib := NewLibrary(dir, 0, 0)

	tests := []struct {
		id   string
		want string
	}{
		{"a.jpg", "a.jpg"},
		{"a.png", "a.jpg"},
		{"a", "a.jpg"},
		{"b", "b.gif"}, // first by name
		{"b.png", "b.png"},
		{"doc.jpg", ""},
		{"doc.txt", ""},
		{"sub/hidden.jpg", ""},
		{"../etc/passwd", ""},
		{"..", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := lib.Resolve(tt.id)
			if tt.want == "" {
				assert.ErrorIs(t, err, fs.ErrNotExist)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	writePhotos(t, dir, "a.jpg")
	lib := NewLibrary(dir, 0, 0)

	data, name, err := lib.ReadSource("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("data:a.jpg"), data)
	assert.Equal(t, "a.jpg", name)

	_, _, err = lib.ReadSource("zzz.jpg")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNewLibraryPageSizes(t *testing.T) {
	lib := NewLibrary("/photos", 500, 50)
	assert.Equal(t, 50, lib.defaultSize)
	assert.Equal(t, 50, lib.maxSize)

	lib = NewLibrary("/photos", -1, -1)
	assert.Equal(t, DefaultPageSize, lib.defaultSize)
	assert.Equal(t, MaxPageSize, lib.maxSize)
	assert.Equal(t, "/photos", lib.Dir())
}
