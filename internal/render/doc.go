// Package render turns source photo bytes into JPEG thumbnails.
//
// The Imaging renderer is pure Go and always available. It decodes with EXIF
// auto-orientation, fits the image inside the configured box with Lanczos
// resampling (never upscaling, aspect ratio preserved) and encodes JPEG at
// the configured quality.
//
// Subpackage vips provides a libvips-backed renderer with the same contract.
package render
