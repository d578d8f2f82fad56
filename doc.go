// Package main provides the entry point for the Photo Gallery application.
//
// Photo Gallery serves a flat directory of photos as a paginated web gallery.
// Thumbnails are rendered once per distinct image content and kept in a
// content-addressed store, so renames, duplicates and restarts never cause
// a photo to be rendered twice.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Thumbnail Store: Creates CACHE_DIR/thumbnails; the process exits if it cannot
//  4. Renderer: imaging (pure Go) or libvips, selected by THUMBNAIL_RENDERER
//  5. Warmup: Renders every photo not yet in the store, blocking unless
//     WARMUP_BACKGROUND is set, in which case /readyz reports not ready until done.
//     A memory monitor pauses warmup while the heap is near the limit.
//  6. Metrics Collector: Samples store and index size every STATS_INTERVAL
//  7. HTTP Server Setup: Configures routes, middleware, and starts servers
//  8. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Static file serving from ./static
//     - Photo listing, metadata, thumbnails and full-size images under /api/photos
//     - Website metadata at /api/site
//     - Health, liveness, readiness and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Graceful Shutdown
//
//  1. Cancel a running warmup (renders in flight still finish and are stored)
//  2. Stop memory monitor and metrics collector
//  3. Shutdown metrics server (if running)
//  4. Shutdown main HTTP server (30s timeout)
//  5. Release libvips (if used)
//
// # Related Packages
//
//   - [photo-gallery/internal/thumbcache]: Digest index, thumbnail store, engine and warmup
//   - [photo-gallery/internal/photos]: Photo directory listing and lookup
//   - [photo-gallery/internal/render]: Thumbnail renderers
//   - [photo-gallery/internal/handlers]: HTTP request handlers
//   - [photo-gallery/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [photo-gallery/internal/memory]: GOMEMLIMIT setup and warmup backpressure
//   - [photo-gallery/internal/startup]: Configuration and initialization
package main
