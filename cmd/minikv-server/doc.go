// Package main provides the entry point for minikv-server.
//
// The server speaks RESP2 on one TCP listener and serves an optional admin
// HTTP endpoint with probes, Prometheus metrics and runtime stats.
//
// Usage:
//
//	minikv-server [flags]
//	minikv-server --config /etc/minikv/server.yaml --addr :6379
//
// Settings are resolved from defaults, then the config file, then MINIKV_*
// environment variables, then flags. Editing the config file while the
// server runs reapplies log.level; other changes need a restart.
package main
