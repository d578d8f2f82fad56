package handlers

import (
	"net/http"
	"strconv"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"

	"github.com/gorilla/mux"
)

// ListPhotos returns one page of the gallery, newest first. Query
// parameters page (0-based) and size are optional.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	page, size := 0, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil {
		size = v
	}

	result, err := h.library.Page(page, size)
	if err != nil {
		logging.Error("ListPhotos: %v", err)
		writeJSONError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	logging.Debug("ListPhotos: page=%d size=%d returned %d of %d photos",
		result.Page, result.Size, len(result.Photos), result.TotalElements)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// GetPhoto returns the metadata of a single photo.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	photo, err := h.library.Get(id)
	if err != nil {
		writeLookupError(w, "GetPhoto", id, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, photo)
}

// GetFullImage serves the original photo bytes.
func (h *Handlers) GetFullImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, filename, err := h.library.ReadSource(id)
	if err != nil {
		writeLookupError(w, "GetFullImage", id, err)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.Debug("GetFullImage: write failed for %s: %v", id, err)
	}
}
