package handlers

import (
	"sync/atomic"
	"time"

	"photo-gallery/internal/photos"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/thumbcache"
)

// Handlers serves the gallery API.
type Handlers struct {
	engine    *thumbcache.Engine
	library   *photos.Library
	site      startup.SiteConfig
	startTime time.Time
	ready     atomic.Bool
}

// New creates Handlers. The service reports ready until SetReady(false) is
// called, which main does while a background warmup runs.
func New(engine *thumbcache.Engine, library *photos.Library, config *startup.Config) *Handlers {
	h := &Handlers{
		engine:    engine,
		library:   library,
		site:      config.Site,
		startTime: time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady changes the readiness reported by the health endpoints.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service accepts traffic.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
