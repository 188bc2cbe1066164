// Package buildinfo exposes version information injected at link time:
//
//	go build -ldflags "-X github.com/yndnr/dinekit-go/internal/infra/buildinfo.Version=v1.2.0"
//
// GoVersion and, when not injected, Commit are read from the binary's
// embedded build information.
package buildinfo
