// Package handlers provides HTTP request handlers for the photo gallery API.
//
// It includes handlers for:
//   - Paginated photo listing and photo metadata
//   - Thumbnails served through the content-addressed cache
//   - Full-size originals
//   - Website metadata
//   - Health, liveness, readiness and version checks
package handlers
