// Package repl provides the interactive mode of minikv-cli.
//
//   - repl.go: the read/eval/print loop and its builtins
//   - split.go: shell-like splitting of an input line into arguments
//   - completer.go: command name completion used by help
//   - history.go: history persisted to ~/.minikv/history
//
// Anything that is not a builtin is handed to an Executor, normally one
// that sends the words as a raw command to the server.
package repl
