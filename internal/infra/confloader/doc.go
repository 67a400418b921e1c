// Package confloader resolves minikv-server settings from layered sources
// and reports edits to the configuration file.
//
// Layers, lowest precedence first:
//
//  1. Values already present in the target struct (the defaults)
//  2. The YAML configuration file
//  3. MINIKV_ environment variables, e.g. MINIKV_SERVER_MAX_CONNECTIONS
//  4. Flag overrides passed to LoadMap
//
// A key missing from every layer leaves the target field untouched.
package confloader
