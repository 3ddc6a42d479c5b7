package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/livefeed/internal/services"
)

// ArchiveHandler exposes the event archive.
type ArchiveHandler struct {
	archive *services.ArchiveService
}

func NewArchiveHandler(archive *services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

// ArchiveRouter registers archive routes on the given router.
func ArchiveRouter(r chi.Router, archive *services.ArchiveService) {
	handler := NewArchiveHandler(archive)
	r.Get("/feeds", handler.ListFeeds)
}

func (h *ArchiveHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.archive.Feeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list archived feeds")
		return
	}
	writeJSON(w, http.StatusOK, feeds)
}
