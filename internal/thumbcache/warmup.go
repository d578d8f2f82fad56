package thumbcache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// staleTempAge is how old a leftover temp file must be before warmup
// removes it. Anything younger may belong to a writer still running.
const staleTempAge = 10 * time.Minute

// WarmupResult summarizes one warmup pass.
type WarmupResult struct {
	Total    int           `json:"total"`
	Rendered int           `json:"rendered"`
	Cached   int           `json:"cached"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// WarmupStatus is a snapshot of warmup progress.
type WarmupStatus struct {
	Running   bool          `json:"running"`
	Completed bool          `json:"completed"`
	Total     int64         `json:"total"`
	Processed int64         `json:"processed"`
	Failed    int64         `json:"failed"`
	Last      *WarmupResult `json:"last,omitempty"`
}

// Warmup forces every photo in the source directory through the
// get-or-create path so first requests are store hits. At most workers
// photos are processed at once.
//
// Per-photo failures are logged and counted, never returned. A *StartupError
// means the store root could not be created and the process should not
// start. A listing failure is returned as an *IOError after nothing was
// processed. If ctx ends early, the partial result and ctx.Err() are
// returned.
func (e *Engine) Warmup(ctx context.Context, workers int) (WarmupResult, error) {
	if err := e.store.EnsureRootExists(); err != nil {
		return WarmupResult{}, err
	}

	if !e.warmup.running.CompareAndSwap(false, true) {
		return WarmupResult{}, fmt.Errorf("thumbnail cache: warmup already running")
	}
	defer e.warmup.running.Store(false)

	metrics.WarmupRunning.Set(1)
	defer metrics.WarmupRunning.Set(0)

	start := time.Now()

	if n := e.store.PurgeTemp(staleTempAge); n > 0 {
		logging.Info("Warmup: removed %d stale temporary files from %s", n, e.store.Root())
	}

	ids, err := e.source.List()
	if err != nil {
		return WarmupResult{}, &IOError{Op: "list", Path: "photo directory", Err: err}
	}

	if workers < 1 {
		workers = 1
	}

	e.warmup.total.Store(int64(len(ids)))
	e.warmup.processed.Store(0)
	e.warmup.failed.Store(0)

	logging.Info("Warmup: processing %d photos with %d workers", len(ids), workers)

	type itemResult struct {
		done   bool
		status CacheStatus
		err    error
	}
	results := make([]itemResult, len(ids))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, id := range ids {
		if e.throttle != nil {
			if err := e.throttle.Wait(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t, err := e.Fetch(ctx, id, nil)
			results[i] = itemResult{done: true, status: t.Status, err: err}

			e.warmup.processed.Add(1)
			if err != nil {
				e.warmup.failed.Add(1)
				if ctx.Err() == nil {
					logging.Warn("Warmup: skipping %s: %v", id, err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := WarmupResult{Total: len(ids)}
	for _, r := range results {
		switch {
		case !r.done:
		case r.err != nil:
			result.Failed++
		case r.status == CacheHit:
			result.Cached++
		default:
			result.Rendered++
		}
	}
	result.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		logging.Warn("Warmup: cancelled after %d of %d photos", e.warmup.processed.Load(), len(ids))
		return result, err
	}

	metrics.WarmupItemsTotal.WithLabelValues("rendered").Add(float64(result.Rendered))
	metrics.WarmupItemsTotal.WithLabelValues("cached").Add(float64(result.Cached))
	metrics.WarmupItemsTotal.WithLabelValues("failed").Add(float64(result.Failed))
	metrics.WarmupLastDuration.Set(result.Duration.Seconds())
	metrics.WarmupLastTimestamp.Set(float64(time.Now().Unix()))

	e.warmup.last.Store(&result)
	e.warmup.completed.Store(true)

	logging.Info("Warmup: completed in %v (total=%d, rendered=%d, cached=%d, failed=%d)",
		result.Duration.Round(time.Millisecond), result.Total, result.Rendered, result.Cached, result.Failed)
	return result, nil
}

// WarmupStatus reports the progress of the current or last warmup.
func (e *Engine) WarmupStatus() WarmupStatus {
	return WarmupStatus{
		Running:   e.warmup.running.Load(),
		Completed: e.warmup.completed.Load(),
		Total:     e.warmup.total.Load(),
		Processed: e.warmup.processed.Load(),
		Failed:    e.warmup.failed.Load(),
		Last:      e.warmup.last.Load(),
	}
}
