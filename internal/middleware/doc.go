// Package middleware provides HTTP middleware for the photo gallery.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response gzip compression for text and JSON responses
//   - Prometheus request metrics labelled by route template
package middleware
