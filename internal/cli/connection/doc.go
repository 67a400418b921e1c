// Package connection manages the CLI's links to a minikv server.
//
//   - manager.go: the current RESP client, dialled lazily and swappable
//     from the REPL
//   - http.go: a small client for the admin HTTP endpoints
package connection
