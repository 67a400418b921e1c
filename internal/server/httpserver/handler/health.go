package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. It fails until the RESP listener is bound.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "server is not accepting connections")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
