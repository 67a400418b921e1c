// Package command defines the minikv-cli commands on urfave/cli/v2.
//
//   - root.go: App, global flags, config file and profile resolution
//   - kv.go: ping, get, set, del, ttl
//   - pubsub.go: publish, subscribe
//   - system.go: stats, gc, health, version against the admin endpoint
//   - repl.go: interactive mode, the default when no command is given
//
// Replies are printed through the output package in the format selected
// with --output.
package command
