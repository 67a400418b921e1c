// Package config holds the minikv-cli preferences file (~/.minikv/cli.yaml).
//
// The file supplies defaults for the global flags and a set of named
// server profiles:
//
//	server: 127.0.0.1:6379
//	admin: 127.0.0.1:9121
//	output: text
//	profiles:
//	  staging:
//	    server: 10.0.0.5:6379
//	    admin: 10.0.0.5:9121
//
// Flags and MINIKV_* environment variables win over the file.
package config
