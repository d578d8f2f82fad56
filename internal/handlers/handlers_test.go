package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"photo-gallery/internal/photos"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/thumbcache"

	"github.com/gorilla/mux"
)

// =============================================================================
// Test Helpers
// =============================================================================

type testServer struct {
	h       *Handlers
	engine  *thumbcache.Engine
	dir     string
	renders atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "photos")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir photos: %v", err)
	}

	ts := &testServer{dir: dir}
	renderer := thumbcache.RenderFunc(func(src []byte) ([]byte, error) {
		ts.renders.Add(1)
		if string(src) == "corrupt" {
			return nil, errors.New("unsupported image")
		}
		return append([]byte("thumb:"), src...), nil
	})

	library := photos.NewLibrary(dir, 2, 3)
	store := thumbcache.NewStore(filepath.Join(base, "cache", "thumbnails"))
	ts.engine = thumbcache.New(store, library, renderer)
	ts.h = New(ts.engine, library, &startup.Config{
		Site: startup.SiteConfig{Title: "Test Gallery", OGSiteName: "Test Gallery"},
	})
	return ts
}

// addPhoto writes a photo whose modification time is age before now.
func (ts *testServer) addPhoto(t *testing.T, name, content string, age time.Duration) {
	t.Helper()
	path := filepath.Join(ts.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func requestWithID(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return mux.SetURLVars(req, map[string]string{"id": id})
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// =============================================================================
// Listing and metadata
// =============================================================================

func TestListPhotos(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "old.jpg", "a", 3*time.Hour)
	ts.addPhoto(t, "mid.png", "b", 2*time.Hour)
	ts.addPhoto(t, "new.gif", "c", time.Hour)
	ts.addPhoto(t, "notes.txt", "d", 0)

	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantSize  int
		wantNames []string
	}{
		{"Defaults", "", 0, 2, []string{"new.gif", "mid.png"}},
		{"Second page", "?page=1", 1, 2, []string{"old.jpg"}},
		{"Page past end clamps", "?page=9", 1, 2, []string{"old.jpg"}},
		{"Negative page clamps", "?page=-4", 0, 2, []string{"new.gif", "mid.png"}},
		{"Size above max clamps", "?size=50", 0, 3, []string{"new.gif", "mid.png", "old.jpg"}},
		{"Invalid values use defaults", "?page=x&size=y", 0, 2, []string{"new.gif", "mid.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ts.h.ListPhotos(w, httptest.NewRequest(http.MethodGet, "/api/photos"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var page photos.PhotoPage
			decodeJSON(t, w, &page)

			if page.Page != tt.wantPage || page.Size != tt.wantSize {
				t.Errorf("page/size = %d/%d, want %d/%d", page.Page, page.Size, tt.wantPage, tt.wantSize)
			}
			if page.TotalElements != 3 {
				t.Errorf("TotalElements = %d, want 3", page.TotalElements)
			}
			var names []string
			for _, p := range page.Photos {
				names = append(names, p.Filename)
			}
			if strings.Join(names, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("photos = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestListPhotosEmptyDirectory(t *testing.T) {
	ts := newTestServer(t)
	if err := os.Remove(ts.dir); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	ts.h.ListPhotos(w, httptest.NewRequest(http.MethodGet, "/api/photos", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var page photos.PhotoPage
	decodeJSON(t, w, &page)
	if len(page.Photos) != 0 || page.TotalElements != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestGetPhoto(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "beach.jpg", "sand", 0)

	t.Run("Exact name", func(t *testing.T) {
		w := httptest.NewRecorder()
		ts.h.GetPhoto(w, requestWithID(http.MethodGet, "/api/photos/beach.jpg", "beach.jpg"))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p photos.Photo
		decodeJSON(t, w, &p)
		if p.ID != "beach.jpg" || p.Filename != "beach.jpg" {
			t.Errorf("unexpected photo %+v", p)
		}
		if p.ThumbnailURL != "/api/photos/beach.jpg/thumbnail" || p.FullSizeURL != "/api/photos/beach.jpg/full" {
			t.Errorf("unexpected URLs %+v", p)
		}
	})

	t.Run("Basename fallback", func(t *testing.T) {
		w := httptest.NewRecorder()
		ts.h.GetPhoto(w, requestWithID(http.MethodGet, "/api/photos/beach", "beach"))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var p photos.Photo
		decodeJSON(t, w, &p)
		if p.ID != "beach" || p.Filename != "beach.jpg" {
			t.Errorf("unexpected photo %+v", p)
		}
	})

	for _, id := range []string{"missing.jpg", "../beach.jpg", ""} {
		t.Run("Not found "+id, func(t *testing.T) {
			w := httptest.NewRecorder()
			ts.h.GetPhoto(w, requestWithID(http.MethodGet, "/api/photos/x", id))
			if w.Code != http.StatusNotFound {
				t.Errorf("expected 404 for %q, got %d", id, w.Code)
			}
		})
	}
}

func TestGetFullImage(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "logo.png", "png-bytes", 0)

	w := httptest.NewRecorder()
	ts.h.GetFullImage(w, requestWithID(http.MethodGet, "/api/photos/logo/full", "logo"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	ts.h.GetFullImage(w, requestWithID(http.MethodHead, "/api/photos/logo/full", "logo"))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD: code=%d body=%d bytes", w.Code, w.Body.Len())
	}
	if w.Header().Get("Content-Length") != "9" {
		t.Errorf("HEAD Content-Length = %q", w.Header().Get("Content-Length"))
	}

	w = httptest.NewRecorder()
	ts.h.GetFullImage(w, requestWithID(http.MethodGet, "/api/photos/none/full", "none"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// =============================================================================
// Thumbnails
// =============================================================================

func TestGetThumbnail(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "hello.jpg", "hello", 0)
	wantETag := `"` + string(thumbcache.DigestOf([]byte("hello"))) + `"`

	w := httptest.NewRecorder()
	ts.h.GetThumbnail(w, requestWithID(http.MethodGet, "/api/photos/hello.jpg/thumbnail", "hello.jpg"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "thumb:hello" {
		t.Errorf("body = %q, want thumb:hello", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if etag := w.Header().Get("ETag"); etag != wantETag {
		t.Errorf("ETag = %q, want %q", etag, wantETag)
	}
	if xc := w.Header().Get("X-Cache"); xc != "miss" {
		t.Errorf("X-Cache = %q, want miss", xc)
	}

	// Second request is served from the store.
	w = httptest.NewRecorder()
	ts.h.GetThumbnail(w, requestWithID(http.MethodGet, "/api/photos/hello.jpg/thumbnail", "hello.jpg"))
	if w.Code != http.StatusOK || w.Body.String() != "thumb:hello" {
		t.Errorf("second request: code=%d body=%q", w.Code, w.Body.String())
	}
	if xc := w.Header().Get("X-Cache"); xc != "hit" {
		t.Errorf("second request X-Cache = %q, want hit", xc)
	}
	if got := ts.renders.Load(); got != 1 {
		t.Errorf("renders = %d, want 1", got)
	}
}

func TestGetThumbnailNotModified(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "hello.jpg", "hello", 0)
	etag := `"` + string(thumbcache.DigestOf([]byte("hello"))) + `"`

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Exact match", etag, http.StatusNotModified},
		{"Weak match in list", `"other", W/` + etag, http.StatusNotModified},
		{"Wildcard", "*", http.StatusNotModified},
		{"Stale tag", `"deadbeef"`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(http.MethodGet, "/api/photos/hello.jpg/thumbnail", "hello.jpg")
			req.Header.Set("If-None-Match", tt.header)
			w := httptest.NewRecorder()
			ts.h.GetThumbnail(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if w.Code == http.StatusNotModified && w.Body.Len() != 0 {
				t.Errorf("304 response should have no body")
			}
		})
	}

	// Only the stale-tag request needed a thumbnail.
	if got := ts.renders.Load(); got != 1 {
		t.Errorf("renders = %d, want 1", got)
	}
}

func TestGetThumbnailETagFollowsServedContent(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "hello.jpg", "hello", 0)

	// Indexed under older content whose thumbnail was never stored.
	ts.engine.Index().Store("hello.jpg", thumbcache.DigestOf([]byte("old content")))

	w := httptest.NewRecorder()
	ts.h.GetThumbnail(w, requestWithID(http.MethodGet, "/api/photos/hello.jpg/thumbnail", "hello.jpg"))

	if w.Code != http.StatusOK || w.Body.String() != "thumb:hello" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
	wantETag := `"` + string(thumbcache.DigestOf([]byte("hello"))) + `"`
	if etag := w.Header().Get("ETag"); etag != wantETag {
		t.Errorf("ETag = %q, want %q", etag, wantETag)
	}
}

func TestGetThumbnailErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "broken.jpg", "corrupt", 0)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"Missing photo", "nope.jpg", http.StatusNotFound},
		{"Traversal", "../etc/passwd", http.StatusNotFound},
		{"Render failure", "broken.jpg", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ts.h.GetThumbnail(w, requestWithID(http.MethodGet, "/api/photos/x/thumbnail", tt.id))

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if w.Header().Get("ETag") != "" {
				t.Errorf("error responses should not carry an ETag")
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestGetThumbnailCancelledRequest(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "hello.jpg", "hello", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := requestWithID(http.MethodGet, "/api/photos/hello.jpg/thumbnail", "hello.jpg").WithContext(ctx)

	w := httptest.NewRecorder()
	ts.h.GetThumbnail(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		etag   string
		want   bool
	}{
		{"", `"a"`, false},
		{`"a"`, `"a"`, true},
		{`W/"a"`, `"a"`, true},
		{`"b", "a"`, `"a"`, true},
		{`"b"`, `"a"`, false},
		{"*", `"a"`, true},
	}
	for _, tt := range tests {
		if got := etagMatches(tt.header, tt.etag); got != tt.want {
			t.Errorf("etagMatches(%q, %q) = %v, want %v", tt.header, tt.etag, got, tt.want)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{thumbcache.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", thumbcache.ErrNotFound), http.StatusNotFound},
		{os.ErrNotExist, http.StatusNotFound},
		{context.Canceled, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{&thumbcache.RenderError{Err: errors.New("bad")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// =============================================================================
// Site, version and health
// =============================================================================

func TestGetSite(t *testing.T) {
	ts := newTestServer(t)

	w := httptest.NewRecorder()
	ts.h.GetSite(w, httptest.NewRequest(http.MethodGet, "/api/site", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	decodeJSON(t, w, &resp)
	if resp["title"] != "Test Gallery" || resp["ogSiteName"] != "Test Gallery" {
		t.Errorf("unexpected site metadata: %v", resp)
	}
	if resp["commit"] != startup.ShortCommit() {
		t.Errorf("commit = %v, want %s", resp["commit"], startup.ShortCommit())
	}
}

func TestGetVersion(t *testing.T) {
	ts := newTestServer(t)

	w := httptest.NewRecorder()
	ts.h.GetVersion(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var info startup.BuildInfo
	decodeJSON(t, w, &info)
	if info.Version != startup.Version {
		t.Errorf("Version = %q, want %q", info.Version, startup.Version)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.addPhoto(t, "a.jpg", "a", 0)
	ts.addPhoto(t, "b.jpg", "b", time.Minute)

	if _, err := ts.engine.Warmup(context.Background(), 2); err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}

	w := httptest.NewRecorder()
	ts.h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	decodeJSON(t, w, &resp)

	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("status = %q ready = %v", resp.Status, resp.Ready)
	}
	if resp.IndexedPhotos != 2 || resp.StoredThumbnails != 2 {
		t.Errorf("cache summary = %d indexed, %d stored", resp.IndexedPhotos, resp.StoredThumbnails)
	}
	if !resp.Warmup.Completed || resp.Warmup.Last == nil || resp.Warmup.Last.Rendered != 2 {
		t.Errorf("unexpected warmup status %+v", resp.Warmup)
	}
}

func TestHealthCheckNotReady(t *testing.T) {
	ts := newTestServer(t)
	ts.h.SetReady(false)

	w := httptest.NewRecorder()
	ts.h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	var resp HealthResponse
	decodeJSON(t, w, &resp)
	if resp.Status != statusStarting || resp.Ready {
		t.Errorf("status = %q ready = %v", resp.Status, resp.Ready)
	}
}

func TestReadinessCheck(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		ready      bool
		wantCode   int
		wantStatus string
	}{
		{true, http.StatusOK, "ready"},
		{false, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		ts.h.SetReady(tt.ready)
		w := httptest.NewRecorder()
		ts.h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if w.Code != tt.wantCode {
			t.Errorf("ready=%v: expected %d, got %d", tt.ready, tt.wantCode, w.Code)
		}
		var resp map[string]string
		decodeJSON(t, w, &resp)
		if resp["status"] != tt.wantStatus {
			t.Errorf("ready=%v: status = %q, want %q", tt.ready, resp["status"], tt.wantStatus)
		}
	}
}

func TestLivenessCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.h.SetReady(false)

	w := httptest.NewRecorder()
	ts.h.LivenessCheck(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("GET: code=%d body=%q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	ts.h.LivenessCheck(w, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD: code=%d body=%q", w.Code, w.Body.String())
	}
}
