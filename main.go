package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/handlers"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/memory"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/middleware"
	"photo-gallery/internal/photos"
	"photo-gallery/internal/render"
	"photo-gallery/internal/render/vips"
	"photo-gallery/internal/startup"
	"photo-gallery/internal/thumbcache"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Filesystem metrics are labelled by volume
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"photos": config.PhotosDir,
		"cache":  config.CacheDir,
	}))
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// Thumbnail store; the process cannot serve thumbnails without it
	store := thumbcache.NewStore(config.ThumbnailDir)
	if err := store.EnsureRootExists(); err != nil {
		startup.LogFatal("Failed to initialize thumbnail store: %v", err)
	}
	files, size, err := store.Usage()
	if err != nil {
		logging.Warn("Could not measure thumbnail store: %v", err)
	}
	startup.LogStoreInit(store.Root(), files, size)

	renderer, err := newRenderer(config)
	if err != nil {
		startup.LogFatal("Failed to initialize renderer: %v", err)
	}
	startup.LogRendererInit(config.Renderer, config.Thumbnail)

	library := photos.NewLibrary(config.PhotosDir, config.DefaultPageSize, config.MaxPageSize)
	engine := thumbcache.New(store, library, renderer)

	// Warmup backs off while the heap is near the memory limit
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()
	engine.SetThrottle(memMonitor)

	h := handlers.New(engine, library, config)

	// Warmup runs before the servers start unless backgrounded
	warmupCtx, cancelWarmup := context.WithCancel(context.Background())
	defer cancelWarmup()
	warmupDone := make(chan struct{})

	if config.WarmupEnabled {
		startup.LogWarmupInit(config.WarmupWorkers, config.WarmupBackground)
		if config.WarmupBackground {
			h.SetReady(false)
			go func() {
				defer close(warmupDone)
				runWarmup(warmupCtx, engine, config.WarmupWorkers)
				h.SetReady(true)
			}()
		} else {
			runWarmup(warmupCtx, engine, config.WarmupWorkers)
			close(warmupDone)
		}
	} else {
		startup.LogWarmupDisabled()
		close(warmupDone)
	}

	// Start metrics collector
	collector := metrics.NewCollector(metrics.StatsFunc(engine.Stats), config.StatsInterval)
	collector.Start()

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Request metrics run inside the router so route templates are known
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	shutdownDone := make(chan struct{})
	go handleShutdown(shutdownTargets{
		srv:          srv,
		metricsSrv:   metricsSrv,
		collector:    collector,
		memMonitor:   memMonitor,
		cancelWarmup: cancelWarmup,
		warmupDone:   warmupDone,
		vips:         config.Renderer == startup.RendererVips,
		done:         shutdownDone,
	})

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		WarmupPending:   !h.IsReady(),
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func newRenderer(config *startup.Config) (thumbcache.Renderer, error) {
	if config.Renderer == startup.RendererVips {
		if err := vips.Startup(); err != nil {
			return nil, err
		}
		return vips.New(config.Thumbnail), nil
	}
	return render.NewImaging(config.Thumbnail), nil
}

// runWarmup logs warmup failures. Only an unusable store is fatal.
func runWarmup(ctx context.Context, engine *thumbcache.Engine, workers int) {
	_, err := engine.Warmup(ctx, workers)
	if err == nil {
		return
	}
	var startupErr *thumbcache.StartupError
	if errors.As(err, &startupErr) {
		startup.LogFatal("Thumbnail warmup failed: %v", err)
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.Warn("Thumbnail warmup failed: %v", err)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/site", h.GetSite).Methods("GET")
	api.HandleFunc("/photos", h.ListPhotos).Methods("GET")
	api.HandleFunc("/photos/{id}", h.GetPhoto).Methods("GET")
	api.HandleFunc("/photos/{id}/thumbnail", h.GetThumbnail).Methods("GET", "HEAD")
	api.HandleFunc("/photos/{id}/full", h.GetFullImage).Methods("GET", "HEAD")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

type shutdownTargets struct {
	srv          *http.Server
	metricsSrv   *http.Server
	collector    *metrics.Collector
	memMonitor   *memory.Monitor
	cancelWarmup context.CancelFunc
	warmupDone   <-chan struct{}
	vips         bool
	done         chan<- struct{}
}

func handleShutdown(t shutdownTargets) {
	defer close(t.done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Cancelling thumbnail warmup")
	t.cancelWarmup()
	select {
	case <-t.warmupDone:
		startup.LogShutdownStepComplete("Warmup stopped")
	case <-ctx.Done():
		logging.Warn("Warmup did not stop before shutdown timeout")
	}

	startup.LogShutdownStep("Stopping memory monitor")
	t.memMonitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	t.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if t.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := t.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := t.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if t.vips {
		startup.LogShutdownStep("Shutting down libvips")
		vips.Shutdown()
	}

	startup.LogShutdownComplete()
}
