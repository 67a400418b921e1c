// Package buildinfo exposes version information stamped into the binaries.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/minikv/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/minikv/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Unset fields are filled from the module build info embedded by the Go
// toolchain, so `go install` builds still report something useful.
package buildinfo
