// Package metric provides Prometheus metrics for minikv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the metric registry and its HTTP handler
//   - collector.go: a collector reading live store statistics
//
// Metrics include:
//
//   - Connection gauges and counters
//   - Per-command counters and latency histograms
//   - Pub/Sub publish and delivery counters
//   - Keyspace and channel counts
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
