// Package logger provides structured logging for minikv.
//
// This package wraps the standard library log/slog:
//
//   - logger.go: handler construction and the dynamic level
//   - context.go: context propagation of loggers and connection ids
//   - redact.go: payload and secret redaction
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Stored values and pub/sub payloads logged by size only
//   - Connection id propagation for per-connection tracing
package logger
