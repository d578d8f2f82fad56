package handlers

import (
	"net/http"
	"runtime"
	"time"

	"photo-gallery/internal/startup"
	"photo-gallery/internal/thumbcache"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Cache summary
	IndexedPhotos    int   `json:"indexedPhotos"`
	StoredThumbnails int   `json:"storedThumbnails"`
	StoreBytes       int64 `json:"storeBytes"`

	Warmup thumbcache.WarmupStatus `json:"warmup"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.IsReady()
	stats := h.engine.Stats()

	response := HealthResponse{
		Status:           statusHealthy,
		Ready:            ready,
		Version:          startup.Version,
		Uptime:           time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:        runtime.Version(),
		NumCPU:           runtime.NumCPU(),
		NumGoroutine:     runtime.NumGoroutine(),
		IndexedPhotos:    stats.IndexedPhotos,
		StoredThumbnails: stats.StoredThumbnails,
		StoreBytes:       stats.StoreBytes,
		Warmup:           h.engine.WarmupStatus(),
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !ready {
		response.Status = statusStarting
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.IsReady() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
