package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	DefaultWidth   = 300
	DefaultHeight  = 200
	DefaultQuality = 85
)

// ErrEmptySource is returned when there are no bytes to decode.
var ErrEmptySource = errors.New("empty source image")

// Options configures the thumbnail box and JPEG quality.
type Options struct {
	Width   int
	Height  int
	Quality int
}

// DefaultOptions returns the gallery's standard thumbnail settings.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

// Normalize replaces out of range values with defaults.
func (o Options) Normalize() Options {
	if o.Width < 1 {
		o.Width = DefaultWidth
	}
	if o.Height < 1 {
		o.Height = DefaultHeight
	}
	if o.Quality < 1 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Imaging renders thumbnails with github.com/disintegration/imaging.
type Imaging struct {
	opts Options
}

// NewImaging returns an Imaging renderer.
func NewImaging(opts Options) *Imaging {
	return &Imaging{opts: opts.Normalize()}
}

// Options returns the effective settings.
func (r *Imaging) Options() Options {
	return r.opts
}

// Render decodes src, fits it inside the configured box and encodes JPEG.
func (r *Imaging) Render(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrEmptySource
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// Fit leaves images already inside the box at their own size.
	thumb := imaging.Fit(img, r.opts.Width, r.opts.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(r.opts.Quality)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
