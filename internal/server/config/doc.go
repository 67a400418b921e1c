// Package config provides server configuration for minikv.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (address formats, ranges, enums)
//   - sanitize.go: Flattened view for logging and /admin/v1/config
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
