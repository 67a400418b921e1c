// Package redisserver provides the RESP2 TCP server for minikv.
//
// The Server owns the listening socket and moves through three states:
//
//   - Accepting: one admission slot is acquired before every accept, so at
//     most MaxConnections handlers run at once. Transient accept errors are
//     retried with doubling backoff until the backoff ceiling is passed.
//   - Draining: entered on a fatal accept error or context cancellation.
//     The listener is closed, the shutdown broadcast fires, and the server
//     waits for every connection handler to finish its current command.
//   - Closed: Run returns.
//
// Each connection gets one handler goroutine plus one read pump, so the
// handler can select between the next request and the shutdown signal.
package redisserver
