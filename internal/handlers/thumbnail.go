package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"
	"photo-gallery/internal/thumbcache"

	"github.com/gorilla/mux"
)

// GetThumbnail serves the cached thumbnail for a photo, rendering it on the
// first request. The content digest doubles as a strong ETag, so a client
// holding the current version gets a 304 without the store being read.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inm := r.Header.Get("If-None-Match")

	thumb, err := h.engine.Fetch(r.Context(), id, func(d thumbcache.ContentDigest) bool {
		return etagMatches(inm, etagFor(d))
	})
	if err != nil {
		writeLookupError(w, "Thumbnail", id, err)
		return
	}

	w.Header().Set("ETag", etagFor(thumb.Digest))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if thumb.Data == nil {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", mediatypes.ThumbnailMimeType)
	w.Header().Set("X-Cache", string(thumb.Status))
	w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(thumb.Data); err != nil {
		logging.Debug("Thumbnail: write failed for %s: %v", id, err)
	}
}

func etagFor(d thumbcache.ContentDigest) string {
	return `"` + d.String() + `"`
}

// etagMatches implements the weak comparison used for If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
