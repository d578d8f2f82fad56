package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// Renderer turns raw source image bytes into encoded thumbnail bytes.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// RenderFunc adapts a function to a Renderer.
type RenderFunc func(src []byte) ([]byte, error)

// Render calls f.
func (f RenderFunc) Render(src []byte) ([]byte, error) {
	return f(src)
}

// Source is the photo directory seen by the engine. Missing photos are
// reported with errors that wrap fs.ErrNotExist.
type Source interface {
	// List returns every photo identifier currently in the directory.
	List() ([]string, error)
	// Resolve maps an identifier to the location of its source file.
	Resolve(id string) (string, error)
	// ReadFile returns the raw bytes at a location returned by Resolve.
	ReadFile(location string) ([]byte, error)
}

// Throttle holds back warmup work, typically while memory is tight. Wait
// returns once the next photo may start, or with ctx.Err().
type Throttle interface {
	Wait(ctx context.Context) error
}

// ReadFunc reads the raw bytes of one source photo.
type ReadFunc func() ([]byte, error)

// flightResult is what a single render flight hands to every waiter.
type flightResult struct {
	data     []byte
	rendered bool
}

// Engine is the get-or-create path for thumbnails. It owns the digest index,
// and coordinates the store and the renderer so that at most one render runs
// per digest at a time.
type Engine struct {
	index    *Index
	store    *Store
	source   Source
	renderer Renderer
	flight   singleflight.Group

	throttle Throttle
	warmup   warmupProgress
}

// New returns an Engine with an empty index.
func New(store *Store, source Source, renderer Renderer) *Engine {
	return &Engine{
		index:    NewIndex(),
		store:    store,
		source:   source,
		renderer: renderer,
	}
}

// SetThrottle makes Warmup wait on t before starting each photo. Call it
// before Warmup. Requests are never throttled.
func (e *Engine) SetThrottle(t Throttle) {
	e.throttle = t
}

// Index returns the engine's digest index. Callers must treat it as read-only.
func (e *Engine) Index() *Index {
	return e.index
}

// Store returns the thumbnail store.
func (e *Engine) Store() *Store {
	return e.store
}

// GetThumbnail returns the encoded thumbnail for the photo identified by id,
// rendering and persisting it on a store miss. It fails with ErrNotFound,
// without touching the index or the store, when id does not resolve to a
// photo. The returned slice may be shared with concurrent callers and must
// not be modified.
func (e *Engine) GetThumbnail(ctx context.Context, id string) ([]byte, error) {
	t, err := e.Fetch(ctx, id, nil)
	return t.Data, err
}

// CacheStatus reports how a thumbnail request was satisfied.
type CacheStatus string

const (
	// CacheHit means the store already held the thumbnail.
	CacheHit CacheStatus = "hit"
	// CacheMiss means this request rendered the thumbnail.
	CacheMiss CacheStatus = "miss"
	// CacheShared means one render served several concurrent requests.
	CacheShared CacheStatus = "shared"
)

// Thumbnail is the result of Fetch.
type Thumbnail struct {
	Digest ContentDigest // digest Data is stored under
	Data   []byte        // nil when Fetch stopped at a current digest
	Status CacheStatus
}

// GetThumbnailStatus is GetThumbnail that also reports whether the
// thumbnail came from the store.
func (e *Engine) GetThumbnailStatus(ctx context.Context, id string) ([]byte, CacheStatus, error) {
	t, err := e.Fetch(ctx, id, nil)
	return t.Data, t.Status, err
}

// Fetch is GetThumbnail returning the digest the thumbnail is stored under.
// When current is non-nil it is called with the resolved digest before the
// store is consulted; if it reports true Fetch returns that digest with no
// data, so a caller that already holds the thumbnail costs one index lookup.
func (e *Engine) Fetch(ctx context.Context, id string, current func(ContentDigest) bool) (Thumbnail, error) {
	read, err := e.reader(id)
	if err != nil {
		return Thumbnail{}, err
	}
	return e.getOrCreate(ctx, id, read, current)
}

// GetThumbnailWith is GetThumbnail with the source bytes supplied by read
// instead of the engine's Source. read should wrap fs.ErrNotExist when the
// photo no longer exists.
func (e *Engine) GetThumbnailWith(ctx context.Context, id string, read ReadFunc) ([]byte, error) {
	t, err := e.getOrCreate(ctx, id, read, nil)
	return t.Data, err
}

// Digest returns the content digest for id, hashing the source file if the
// index has no entry yet.
func (e *Engine) Digest(id string) (ContentDigest, error) {
	read, err := e.reader(id)
	if err != nil {
		return "", err
	}
	d, _, err := e.resolveDigest(id, read)
	return d, err
}

// Stats reports the current size of the index and the store.
func (e *Engine) Stats() metrics.Stats {
	stats := metrics.Stats{IndexedPhotos: e.index.Len()}
	files, size, err := e.store.Usage()
	if err != nil {
		logging.Debug("Thumbnail store usage unavailable: %v", err)
		return stats
	}
	stats.StoredThumbnails = files
	stats.StoreBytes = size
	return stats
}

// reader resolves id against the source and returns a ReadFunc for it.
func (e *Engine) reader(id string) (ReadFunc, error) {
	location, err := e.source.Resolve(id)
	if err != nil {
		return nil, sourceError("resolve", id, err)
	}
	return func() ([]byte, error) {
		data, err := e.source.ReadFile(location)
		if err != nil {
			return nil, sourceError("read", location, err)
		}
		return data, nil
	}, nil
}

func sourceError(op, path string, err error) error {
	var ioErr *IOError
	switch {
	case errors.Is(err, ErrNotFound), errors.As(err, &ioErr):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: photo %s", ErrNotFound, path)
	default:
		return &IOError{Op: op, Path: path, Err: err}
	}
}

// resolveDigest returns the digest for id. On an index miss it reads and
// hashes the source and also returns the bytes so a following render does
// not read them again.
func (e *Engine) resolveDigest(id string, read ReadFunc) (ContentDigest, []byte, error) {
	if d, ok := e.index.Lookup(id); ok {
		return d, nil, nil
	}

	src, err := read()
	if err != nil {
		return "", nil, sourceError("read", id, err)
	}
	d := e.hash(src)
	e.index.Store(id, d)
	metrics.ThumbnailIndexSize.Set(float64(e.index.Len()))
	return d, src, nil
}

func (e *Engine) hash(src []byte) ContentDigest {
	start := time.Now()
	d := DigestOf(src)
	metrics.ThumbnailDigestsTotal.Inc()
	metrics.ThumbnailDigestDuration.Observe(time.Since(start).Seconds())
	return d
}

// stored reads the thumbnail for d. A file that vanishes between the
// existence check and the read counts as absent.
func (e *Engine) stored(d ContentDigest) ([]byte, bool, error) {
	if !e.store.Exists(d) {
		return nil, false, nil
	}
	data, err := e.store.Read(d)
	switch {
	case err == nil:
		return data, true, nil
	case errors.Is(err, ErrNotFound):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

func (e *Engine) getOrCreate(ctx context.Context, id string, read ReadFunc, current func(ContentDigest) bool) (Thumbnail, error) {
	if err := ctx.Err(); err != nil {
		return Thumbnail{}, err
	}

	d, src, err := e.resolveDigest(id, read)
	if err != nil {
		return Thumbnail{}, err
	}
	if current != nil && current(d) {
		return Thumbnail{Digest: d, Status: CacheHit}, nil
	}

	data, ok, err := e.stored(d)
	if err != nil {
		return Thumbnail{}, err
	}
	if ok {
		metrics.ThumbnailCacheHits.Inc()
		return Thumbnail{Digest: d, Data: data, Status: CacheHit}, nil
	}

	if src == nil {
		// Indexed but not stored: the bytes must still hash to the digest
		// the render is published under.
		if src, err = read(); err != nil {
			return Thumbnail{}, sourceError("read", id, err)
		}
		if fresh := e.hash(src); fresh != d {
			logging.Debug("Photo %s changed on disk (%s -> %s)", id, d.Short(), fresh.Short())
			e.index.Store(id, fresh)
			d = fresh

			data, ok, err := e.stored(d)
			if err != nil {
				return Thumbnail{}, err
			}
			if ok {
				metrics.ThumbnailCacheHits.Inc()
				return Thumbnail{Digest: d, Data: data, Status: CacheHit}, nil
			}
		}
	}

	metrics.ThumbnailCacheMisses.Inc()
	return e.renderOnce(ctx, id, d, src)
}

// renderOnce renders src and stores it under d, which must be the digest of
// src. Concurrent callers for the same digest share one flight. A caller
// whose context ends stops waiting, but the flight runs to completion so the
// store still gets the file.
func (e *Engine) renderOnce(ctx context.Context, id string, d ContentDigest, src []byte) (Thumbnail, error) {
	ch := e.flight.DoChan(string(d), func() (interface{}, error) {
		// Another flight may have published while we waited for the key.
		if data, ok, _ := e.stored(d); ok {
			return flightResult{data: data}, nil
		}

		data, err := e.render(id, d, src)
		if err != nil {
			return nil, err
		}
		if err := e.store.Write(d, data); err != nil {
			return nil, err
		}
		return flightResult{data: data, rendered: true}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Thumbnail{}, res.Err
		}
		if res.Shared {
			metrics.ThumbnailSharedRendersTotal.Inc()
		}
		fr := res.Val.(flightResult)
		status := CacheHit
		if fr.rendered {
			status = CacheMiss
			if res.Shared {
				status = CacheShared
			}
		}
		return Thumbnail{Digest: d, Data: fr.data, Status: status}, nil
	case <-ctx.Done():
		return Thumbnail{}, ctx.Err()
	}
}

func (e *Engine) render(id string, d ContentDigest, src []byte) ([]byte, error) {
	start := time.Now()
	data, err := e.renderer.Render(src)
	metrics.ThumbnailRenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailRendersTotal.WithLabelValues("error").Inc()
		return nil, &RenderError{ID: id, Digest: d, Err: err}
	}
	if len(data) == 0 {
		metrics.ThumbnailRendersTotal.WithLabelValues("error").Inc()
		return nil, &RenderError{ID: id, Digest: d, Err: errors.New("renderer returned no data")}
	}
	metrics.ThumbnailRendersTotal.WithLabelValues("success").Inc()
	logging.Debug("Rendered thumbnail for %s (%s) in %v", id, d.Short(), time.Since(start))
	return data, nil
}

// warmupProgress is read by health checks while a warmup runs.
type warmupProgress struct {
	running   atomic.Bool
	completed atomic.Bool
	total     atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	last      atomic.Pointer[WarmupResult]
}
