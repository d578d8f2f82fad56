package filesystem

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	attempts   int
	successes  int
	failures   int
	stale      int
}

func (o *recordingObserver) ObserveOperation(volume, operation string, _ float64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.operations = append(o.operations, volume+"/"+operation+"/"+status)
}

func (o *recordingObserver) ObserveRetryAttempt(_, _ string) { o.mu.Lock(); o.attempts++; o.mu.Unlock() }
func (o *recordingObserver) ObserveRetrySuccess(_, _ string) { o.mu.Lock(); o.successes++; o.mu.Unlock() }
func (o *recordingObserver) ObserveRetryFailure(_, _ string) { o.mu.Lock(); o.failures++; o.mu.Unlock() }
func (o *recordingObserver) ObserveStaleError(_, _ string)   { o.mu.Lock(); o.stale++; o.mu.Unlock() }

func installObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT", err: syscall.ENOENT, want: false},
		{name: "generic", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"photos": "/photos",
		"cache":  "/cache",
		"thumbs": "/cache/thumbnails",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/photos/a.jpg", "photos"},
		{"/photos", "photos"},
		{"/cache/other.bin", "cache"},
		{"/cache/thumbnails/abc.jpg", "thumbs"},
		{"/photoshop/a.jpg", "unknown"},
		{"/tmp/a.jpg", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/photos/a.jpg"); got != "unknown" {
		t.Errorf("nil resolver Resolve() = %q, want unknown", got)
	}
}

func TestRetryConfig_ResolveVolume(t *testing.T) {
	prev := defaultResolver
	t.Cleanup(func() { SetDefaultVolumeResolver(prev) })

	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"photos": "/photos"}))
	config := DefaultRetryConfig()
	if got := config.resolveVolume("/photos/a.jpg"); got != "photos" {
		t.Errorf("default resolver: got %q, want photos", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"cache": "/photos"})
	if got := config.resolveVolume("/photos/a.jpg"); got != "cache" {
		t.Errorf("config resolver: got %q, want cache", got)
	}
}

func TestWithRetry_RecoversFromStaleHandle(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	got, err := withRetry("read", "/photos/a.jpg", fastRetryConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", syscall.ESTALE
		}
		return "data", nil
	})
	if err != nil {
		t.Fatalf("withRetry() error = %v", err)
	}
	if got != "data" {
		t.Errorf("withRetry() = %q, want data", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.successes != 1 || obs.failures != 0 {
		t.Errorf("observer counts stale=%d attempts=%d successes=%d failures=%d",
			obs.stale, obs.attempts, obs.successes, obs.failures)
	}
	if len(obs.operations) != 1 || obs.operations[0] != "unknown/read/ok" {
		t.Errorf("operations = %v", obs.operations)
	}
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	obs := installObserver(t)

	calls := 0
	_, err := withRetry("stat", "/photos/a.jpg", fastRetryConfig(), func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
	if obs.attempts != 3 {
		t.Errorf("attempts = %d, want 3", obs.attempts)
	}
}

func TestWithRetry_NonStaleErrorFailsFast(t *testing.T) {
	installObserver(t)

	calls := 0
	_, err := withRetry("stat", "/photos/a.jpg", fastRetryConfig(), func() (int, error) {
		calls++
		return 0, os.ErrPermission
	})
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("withRetry() error = %v, want ErrPermission", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWrappersAgainstRealFiles(t *testing.T) {
	dir := t.TempDir()
	content := []byte("photo bytes")
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	config := DefaultRetryConfig()

	info, err := StatWithRetry(path, config)
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("Size() = %d, want %d", info.Size(), len(content))
	}

	data, err := ReadFileWithRetry(path, config)
	if err != nil {
		t.Fatalf("ReadFileWithRetry() error = %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("ReadFileWithRetry() = %q, want %q", data, content)
	}

	entries, err := ReadDirWithRetry(dir, config)
	if err != nil {
		t.Fatalf("ReadDirWithRetry() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.jpg" {
		t.Errorf("ReadDirWithRetry() = %v", entries)
	}

	if _, err := StatWithRetry(filepath.Join(dir, "missing.jpg"), config); !os.IsNotExist(err) {
		t.Errorf("StatWithRetry(missing) error = %v, want not-exist", err)
	}
}

func BenchmarkStatWithRetry_Success(b *testing.B) {
	dir := b.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		b.Fatalf("WriteFile: %v", err)
	}
	config := DefaultRetryConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := StatWithRetry(path, config); err != nil {
			b.Fatal(err)
		}
	}
}
