// Package main provides the entry point for minikv-cli.
//
// The CLI talks RESP to a minikv server for keyspace and pub/sub commands
// and HTTP to its admin endpoint for stats, health and expiry sweeps:
//
//	minikv-cli set greeting hello --ex 60
//	minikv-cli -o json get greeting
//	minikv-cli subscribe news --count 10
//	minikv-cli --profile staging stats
//
// Without a command it starts an interactive prompt.
package main
