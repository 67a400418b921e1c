// Package httpserver serves the administrative HTTP endpoints of minikv.
//
// The admin listener is separate from the RESP listener and exposes:
//
//   - Probes: /health, /ready
//   - Prometheus metrics: /metrics
//   - Build information: /version
//   - Admin endpoints: /admin/v1/stats, /admin/v1/config, /admin/v1/gc/trigger
//
// Every route runs behind RequestID and Recover. Admin routes additionally
// get access logging and an optional per-client rate limit.
package httpserver
