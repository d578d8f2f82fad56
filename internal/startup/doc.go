// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PHOTOS_DIR: Directory holding the gallery images (default: /photos)
//   - CACHE_DIR: Cache root; thumbnails live in CACHE_DIR/thumbnails (default: /cache)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - THUMBNAIL_WIDTH, THUMBNAIL_HEIGHT: Thumbnail bounding box (default: 300x200)
//   - THUMBNAIL_QUALITY: JPEG quality 1-100 (default: 85)
//   - THUMBNAIL_RENDERER: imaging or vips (default: imaging)
//   - WARMUP_ENABLED: Render every photo at startup (default: true)
//   - WARMUP_BACKGROUND: Serve requests while warmup runs (default: false)
//   - WARMUP_WORKERS: Warmup concurrency (default: derived from CPU count, max 8)
//   - STATS_INTERVAL: Cache gauge refresh interval as Go duration (default: 1m)
//   - PAGE_SIZE_DEFAULT, PAGE_SIZE_MAX: Photo list paging (default: 12, 100)
//   - SITE_TITLE, SITE_DESCRIPTION, SITE_FAVICON: Site metadata
//   - SITE_OG_IMAGE, SITE_OG_URL, SITE_OG_SITE_NAME: Open Graph metadata
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Heap budget, read by the memory package
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid numeric values fall back to their defaults with a warning.
// The photos directory is checked but never created.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogStoreInit]: Thumbnail store location and contents
//   - [LogRendererInit]: Active renderer and thumbnail settings
//   - [LogWarmupInit], [LogWarmupDisabled]: Warmup mode
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
package startup
