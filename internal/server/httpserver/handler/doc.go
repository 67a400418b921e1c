// Package handler implements the admin HTTP endpoints.
//
//   - health.go: liveness and readiness probes
//   - admin.go: version, store statistics, effective config, expiry sweep
//
// Every JSON body uses the Response envelope.
package handler
