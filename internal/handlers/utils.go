package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/thumbcache"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// errorStatus maps a lookup or cache error to an HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, thumbcache.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeLookupError logs err at a level matching its status and writes the
// JSON error response. Internal details are not sent to the client.
func writeLookupError(w http.ResponseWriter, what, id string, err error) {
	status := errorStatus(err)
	switch status {
	case http.StatusNotFound:
		logging.Debug("%s: photo not found: %s", what, id)
		writeJSONError(w, "Photo not found", status)
	case http.StatusServiceUnavailable:
		logging.Debug("%s: request for %s cancelled: %v", what, id, err)
		writeJSONError(w, "Request cancelled", status)
	default:
		logging.Error("%s: failed for %s: %v", what, id, err)
		writeJSONError(w, "Internal server error", status)
	}
}
