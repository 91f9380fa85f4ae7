// Package version reports the build version of onion binaries.
//
// Version, Commit and BuildTime are set with -ldflags; anything left empty
// is filled from the VCS stamps the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/onion/version.Version=1.2.0" ./cmd/onion
package version
