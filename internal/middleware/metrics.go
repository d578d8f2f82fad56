package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-gallery/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics. Register it
// with Router.Use so the matched route template is available as a label.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matchesPath(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			duration := time.Since(start).Seconds()
			path := routeLabel(r)
			status := strconv.Itoa(rec.status)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routeLabel returns the matched mux route template, which keeps photo ids
// out of label values. Requests without a named route fall back to
// normalizePath.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil && !strings.HasSuffix(tmpl, "/") {
			return tmpl
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath normalizes the path for metrics to avoid high cardinality
func normalizePath(path string) string {
	parts := strings.Split(path, "/")

	if len(parts) > 1 && parts[1] == "api" {
		// /api/photos/<id>[/thumbnail|/full]
		if len(parts) >= 4 && parts[2] == "photos" && parts[3] != "" {
			parts[3] = "{id}"
			if len(parts) > 5 {
				parts = parts[:5]
			}
			return strings.Join(parts, "/")
		}
		return path
	}

	// Static files: keep the first segment only.
	if len(parts) > 2 {
		return "/" + parts[1] + "/{path}"
	}
	return path
}
