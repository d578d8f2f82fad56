package handlers

import (
	"net/http"

	"photo-gallery/internal/startup"
)

// SiteResponse is the metadata the gallery front end renders its page from.
type SiteResponse struct {
	startup.SiteConfig
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// GetSite returns website metadata and the abbreviated build commit.
func (h *Handlers) GetSite(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, SiteResponse{
		SiteConfig: h.site,
		Version:    startup.Version,
		Commit:     startup.ShortCommit(),
	})
}
