package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/minikv/internal/server/httpserver/handler"
	"github.com/yndnr/minikv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Store backs the stats and expiry sweep endpoints.
	Store handler.Store

	// Metrics is served on /metrics. Nil leaves the route unregistered.
	Metrics *metric.Registry

	// Settings is the effective configuration shown on /admin/v1/config.
	Settings map[string]any

	// Ready reports RESP listener readiness for /ready.
	Ready func() bool

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the per-client rate on admin routes (requests/second).
	// Zero disables it.
	RateLimit int

	// AccessLog logs admin requests.
	AccessLog bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(handler.Config{
		Store:    cfg.Store,
		Settings: cfg.Settings,
		Ready:    cfg.Ready,
		Logger:   logger,
	})

	mux := http.NewServeMux()

	// Probes and scrapes are polled constantly; they skip access logging
	// and rate limiting.
	probe := Chain(h, RequestID(), Recover(logger))
	mux.Handle("GET /health", probe)
	mux.Handle("GET /ready", probe)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), RequestID(), Recover(logger)))
	}

	// Order: Recover -> RequestID -> RateLimit -> AccessLog -> Handler
	middlewares := []Middleware{Recover(logger), RequestID()}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(logger))
	}
	admin := Chain(h, middlewares...)

	mux.Handle("GET /version", admin)
	mux.Handle("GET /admin/v1/stats", admin)
	mux.Handle("GET /admin/v1/config", admin)
	mux.Handle("POST /admin/v1/gc/trigger", admin)

	return mux
}
