package middleware

import (
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is a gzip level; invalid levels use gzip.DefaultCompression.
	Level int
	// CompressibleTypes are the media types that get compressed. Thumbnails
	// and photos are already compressed and are not listed.
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses JSON and text assets of 1 KiB or more.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"application/javascript",
			"application/manifest+json",
			"application/xml",
			"image/svg+xml",
			"text/css",
			"text/html",
			"text/javascript",
			"text/plain",
			"text/xml",
		},
	}
}

// gzipPools holds one writer pool per compression level.
var gzipPools sync.Map

func gzipPool(level int) *sync.Pool {
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		level = gzip.DefaultCompression
	}
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{
		New: func() interface{} {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		},
	})
	return p.(*sync.Pool)
}

type encodingMode int

const (
	modePending encodingMode = iota
	modeIdentity
	modeGzip
)

// compressWriter buffers the start of a response until it knows the body is
// large enough and of a compressible type, then commits to gzip or identity
// encoding for the rest of the response.
type compressWriter struct {
	http.ResponseWriter
	config CompressionConfig
	pool   *sync.Pool
	gz     *gzip.Writer
	mode   encodingMode
	status int
	buf    []byte
}

func (c *compressWriter) WriteHeader(status int) {
	if c.mode == modePending && c.status == 0 {
		c.status = status
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	switch c.mode {
	case modeIdentity:
		return c.ResponseWriter.Write(p)
	case modeGzip:
		return c.gz.Write(p)
	}

	c.buf = append(c.buf, p...)
	if len(c.buf) >= c.config.MinSize {
		if err := c.commit(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// commit picks the encoding, sends the header and drains the buffer.
func (c *compressWriter) commit() error {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	buf := c.buf
	c.buf = nil

	h := c.Header()
	if len(buf) == 0 || len(buf) < c.config.MinSize || h.Get("Content-Encoding") != "" || !c.compressible() {
		c.mode = modeIdentity
		c.ResponseWriter.WriteHeader(status)
		if len(buf) == 0 {
			return nil
		}
		_, err := c.ResponseWriter.Write(buf)
		return err
	}

	c.mode = modeGzip
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")

	c.gz = c.pool.Get().(*gzip.Writer)
	c.gz.Reset(c.ResponseWriter)
	c.ResponseWriter.WriteHeader(status)
	_, err := c.gz.Write(buf)
	return err
}

func (c *compressWriter) compressible() bool {
	mediaType, _, _ := strings.Cut(c.Header().Get("Content-Type"), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType != "" && slices.Contains(c.config.CompressibleTypes, mediaType)
}

// Close commits a response that never reached MinSize and returns the gzip
// writer to its pool.
func (c *compressWriter) Close() error {
	var err error
	if c.mode == modePending {
		err = c.commit()
	}
	if c.gz != nil {
		if cerr := c.gz.Close(); err == nil {
			err = cerr
		}
		c.pool.Put(c.gz)
		c.gz = nil
	}
	return err
}

func (c *compressWriter) Flush() {
	if c.mode == modePending {
		_ = c.commit()
	}
	if c.gz != nil {
		_ = c.gz.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// acceptsGzip reports whether the client accepts gzip with a non-zero
// quality.
func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "gzip" && name != "*" {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

// Compression returns middleware that gzips compressible responses for
// clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	pool := gzipPool(config.Level)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) || r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{ResponseWriter: w, config: config, pool: pool}
			defer func() { _ = cw.Close() }()
			next.ServeHTTP(cw, r)
		})
	}
}
