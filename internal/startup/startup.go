package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/photos"
	"photo-gallery/internal/render"
	"photo-gallery/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// ShortCommit returns the first seven characters of the build commit, or
// "unknown" when no commit was injected.
func ShortCommit() string {
	c := strings.TrimSpace(Commit)
	if c == "" {
		return "unknown"
	}
	if len(c) > 7 && c != "unknown" {
		return c[:7]
	}
	return c
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Renderer names accepted by THUMBNAIL_RENDERER.
const (
	RendererImaging = "imaging"
	RendererVips    = "vips"
)

// maxWarmupWorkers caps WARMUP_WORKERS and the computed default.
const maxWarmupWorkers = 8

// SiteConfig is the website metadata served to the front end.
type SiteConfig struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Favicon     string `json:"favicon"`
	OGImage     string `json:"ogImage"`
	OGURL       string `json:"ogUrl"`
	OGSiteName  string `json:"ogSiteName"`
}

// Config holds all application configuration
type Config struct {
	PhotosDir       string
	CacheDir        string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogStaticFiles  bool
	LogHealthChecks bool

	Thumbnail render.Options
	Renderer  string

	WarmupEnabled    bool
	WarmupBackground bool
	WarmupWorkers    int

	StatsInterval   time.Duration
	DefaultPageSize int
	MaxPageSize     int

	Site SiteConfig

	// Derived paths
	ThumbnailDir string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	photosDir := getEnv("PHOTOS_DIR", "/photos")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	thumb := render.Options{
		Width:   getEnvInt("THUMBNAIL_WIDTH", render.DefaultWidth),
		Height:  getEnvInt("THUMBNAIL_HEIGHT", render.DefaultHeight),
		Quality: getEnvInt("THUMBNAIL_QUALITY", render.DefaultQuality),
	}
	if normalized := thumb.Normalize(); normalized != thumb {
		logging.Warn("  Invalid thumbnail settings %dx%d q%d, using %dx%d q%d",
			thumb.Width, thumb.Height, thumb.Quality, normalized.Width, normalized.Height, normalized.Quality)
		thumb = normalized
	}

	renderer := strings.ToLower(getEnv("THUMBNAIL_RENDERER", RendererImaging))
	if renderer != RendererImaging && renderer != RendererVips {
		logging.Warn("  Invalid THUMBNAIL_RENDERER %q, using default: %s", renderer, RendererImaging)
		renderer = RendererImaging
	}

	warmupEnabled := getEnvBool("WARMUP_ENABLED", true)
	warmupBackground := getEnvBool("WARMUP_BACKGROUND", false)
	warmupWorkers := workers.Override(os.Getenv("WARMUP_WORKERS"), workers.ForMixed(maxWarmupWorkers), maxWarmupWorkers)

	statsInterval := getEnvDuration("STATS_INTERVAL", time.Minute)
	defaultPageSize := getEnvInt("PAGE_SIZE_DEFAULT", photos.DefaultPageSize)
	maxPageSize := getEnvInt("PAGE_SIZE_MAX", photos.MaxPageSize)

	site := SiteConfig{
		Title:       getEnv("SITE_TITLE", "Photos Gallery"),
		Description: getEnv("SITE_DESCRIPTION", "A beautiful photo gallery"),
		Favicon:     getEnv("SITE_FAVICON", "/favicon.ico"),
		OGImage:     getEnv("SITE_OG_IMAGE", ""),
		OGURL:       getEnv("SITE_OG_URL", ""),
		OGSiteName:  getEnv("SITE_OG_SITE_NAME", ""),
	}
	if site.OGSiteName == "" {
		site.OGSiteName = site.Title
	}

	logging.Info("  PHOTOS_DIR:          %s", photosDir)
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  THUMBNAIL_SIZE:      %dx%d (quality %d)", thumb.Width, thumb.Height, thumb.Quality)
	logging.Info("  THUMBNAIL_RENDERER:  %s", renderer)
	logging.Info("  WARMUP_ENABLED:      %v", warmupEnabled)
	logging.Info("  WARMUP_BACKGROUND:   %v", warmupBackground)
	logging.Info("  WARMUP_WORKERS:      %d", warmupWorkers)
	logging.Info("  STATS_INTERVAL:      %s", statsInterval)
	logging.Info("  PAGE_SIZE:           %d (max %d)", defaultPageSize, maxPageSize)
	logging.Info("  SITE_TITLE:          %s", site.Title)
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	photosDir, err := filepath.Abs(photosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve photos directory path: %w", err)
	}
	logging.Info("  Photos directory (absolute): %s", photosDir)

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute):  %s", cacheDir)

	// A missing photos directory is served as an empty gallery.
	if err := checkDirectory(photosDir, "photos"); err != nil {
		logging.Warn("  Photos directory issue: %v", err)
	}

	return &Config{
		PhotosDir:        photosDir,
		CacheDir:         cacheDir,
		Port:             port,
		MetricsPort:      metricsPort,
		MetricsEnabled:   metricsEnabled,
		LogStaticFiles:   logStaticFiles,
		LogHealthChecks:  logHealthChecks,
		Thumbnail:        thumb,
		Renderer:         renderer,
		WarmupEnabled:    warmupEnabled,
		WarmupBackground: warmupBackground,
		WarmupWorkers:    warmupWorkers,
		StatsInterval:    statsInterval,
		DefaultPageSize:  defaultPageSize,
		MaxPageSize:      maxPageSize,
		Site:             site,
		ThumbnailDir:     filepath.Join(cacheDir, "thumbnails"),
	}, nil
}

// LogStoreInit logs thumbnail store setup
func LogStoreInit(root string, files int, size int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL STORE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Store directory: %s", root)
	logging.Info("  [OK] %d thumbnails on disk (%s)", files, formatBytes(size))
}

// LogRendererInit logs which thumbnail renderer is active
func LogRendererInit(name string, opts render.Options) {
	logging.Info("  Renderer: %s (%dx%d, quality %d)", name, opts.Width, opts.Height, opts.Quality)
}

// LogWarmupInit logs the start of the startup warmup
func LogWarmupInit(workerCount int, background bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL WARMUP")
	logging.Info("------------------------------------------------------------")
	if background {
		logging.Info("  Running in background with %d workers", workerCount)
		logging.Info("  /readyz reports not ready until warmup completes")
		return
	}
	logging.Info("  Running with %d workers (server starts when complete)", workerCount)
}

// LogWarmupDisabled logs that warmup was skipped
func LogWarmupDisabled() {
	logging.Info("")
	logging.Info("  Thumbnail warmup disabled (WARMUP_ENABLED=false)")
	logging.Info("  Thumbnails will be rendered on first request")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	// API routes group by resource
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig describes what is being served for the startup summary.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	WarmupPending   bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening addresses once startup has finished.
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED in %v", config.StartupDuration.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
	logging.Info("  Gallery:     http://localhost:%s/", config.Port)
	logging.Info("  Photos API:  http://localhost:%s/api/photos", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:     http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:     DISABLED")
	}
	if config.WarmupPending {
		logging.Info("  Warmup still running, thumbnails may render on request")
	}
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __
   / __ \/ /_  ____  / /_____  _____
  / /_/ / __ \/ __ \/ __/ __ \/ ___/
 / ____/ / / / /_/ / /_/ /_/ (__  )
/_/   /_/ /_/\____/\__/\____/____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkDirectory verifies path is an existing directory without creating it.
func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries (top level)", len(entries))
		}
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
