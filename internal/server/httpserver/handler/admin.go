package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/minikv/internal/infra/buildinfo"
)

func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}

// handleStats handles GET /admin/v1/stats.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()
	h.writeJSON(w, r, http.StatusOK, StatsResponse{
		Keys:          st.Keys,
		Channels:      st.Channels,
		Subscriptions: st.Subscriptions,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// handleConfig handles GET /admin/v1/config.
func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.settings)
}

// handleGCTrigger handles POST /admin/v1/gc/trigger. It runs one expiry sweep
// without waiting for the background sweeper.
func (h *Handler) handleGCTrigger(w http.ResponseWriter, r *http.Request) {
	n := h.store.PurgeExpired()
	h.logger.Info("expiry sweep triggered", "purged", n, "request_id", getRequestID(r))
	h.writeJSON(w, r, http.StatusOK, GCResponse{
		Purged:      n,
		TriggeredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
