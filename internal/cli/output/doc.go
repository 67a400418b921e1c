// Package output renders replies for minikv-cli.
//
//   - text: redis-cli style, for people
//   - json, yaml: structured, for scripts
//
// Reply frames and subscriber pushes are normalised to plain values before
// structured encoding, so bulk strings print as text rather than base64.
package output
