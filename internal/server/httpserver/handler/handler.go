package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/minikv/internal/storage/memory"
)

// Store is the slice of the keyspace the admin endpoints need.
type Store interface {
	Stats() memory.Stats
	PurgeExpired() int
}

// Config wires a Handler to the running server.
type Config struct {
	Store Store

	// Settings is the redacted effective configuration served by /admin/v1/config.
	Settings map[string]any

	// Ready reports whether the RESP listener is accepting. Nil means always ready.
	Ready func() bool

	Logger *slog.Logger
}

// Handler routes admin requests.
type Handler struct {
	store    Store
	settings map[string]any
	ready    func() bool
	logger   *slog.Logger
	started  time.Time
	mux      *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		store:    cfg.Store,
		settings: cfg.Settings,
		ready:    cfg.Ready,
		logger:   cfg.Logger,
		started:  time.Now(),
		mux:      http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.settings == nil {
		h.settings = map[string]any{}
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)

	h.mux.HandleFunc("GET /admin/v1/stats", h.handleStats)
	h.mux.HandleFunc("GET /admin/v1/config", h.handleConfig)
	h.mux.HandleFunc("POST /admin/v1/gc/trigger", h.handleGCTrigger)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// getRequestID returns the ID the RequestID middleware stored on the request.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
