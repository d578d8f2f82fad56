// Package vips renders thumbnails with libvips through govips. It needs cgo
// and a libvips installation at runtime; Startup must succeed before any
// Renderer is used.
package vips

import (
	"fmt"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/render"
)

var (
	startMu sync.Mutex
	started bool
)

// Startup initializes libvips once, routing its log output through the
// application logger at the current log level.
func Startup() error {
	startMu.Lock()
	defer startMu.Unlock()

	if started {
		return nil
	}

	// Configure vips logging BEFORE Startup() to respect LOG_LEVEL.
	vipsLevel, handler := logBridge(logging.GetLevel())
	vips.LoggingSettings(handler, vipsLevel)

	// Thumbnails are small; keep libvips' own cache modest.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	started = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// Shutdown releases libvips resources.
func Shutdown() {
	startMu.Lock()
	defer startMu.Unlock()

	if started {
		vips.Shutdown()
		started = false
		logging.Info("libvips shutdown complete")
	}
}

func logBridge(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	case logging.LevelInfo:
		return vips.LogLevelWarning, func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			}
		}
	case logging.LevelWarn:
		return vips.LogLevelError, func(domain string, l vips.LogLevel, msg string) {
			if l >= vips.LogLevelError {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	default:
		return vips.LogLevelCritical, func(domain string, l vips.LogLevel, msg string) {
			if l >= vips.LogLevelCritical {
				logging.Error("[%s] %s", domain, msg)
			}
		}
	}
}

// Renderer renders thumbnails with libvips, shrinking during decode where
// the format allows it.
type Renderer struct {
	opts render.Options
}

// New returns a Renderer. Call Startup first.
func New(opts render.Options) *Renderer {
	return &Renderer{opts: opts.Normalize()}
}

// Render decodes src, auto-rotates it, fits it inside the configured box
// without upscaling and encodes JPEG.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, render.ErrEmptySource
	}

	ref, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return nil, fmt.Errorf("vips decode: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips autorotate: %w", err)
	}

	if err := ref.ThumbnailWithSize(r.opts.Width, r.opts.Height, vips.InterestingNone, vips.SizeDown); err != nil {
		return nil, fmt.Errorf("vips resize: %w", err)
	}

	out, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        r.opts.Quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return out, nil
}
