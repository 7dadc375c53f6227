// Package version exposes build metadata injected at link time, for example:
//
//	go build -ldflags "-X github.com/oshokin/podcast-grabber/internal/version.Version=1.2.0"
package version

import "fmt"

//nolint:gochecknoglobals // Overridden with -ldflags -X at build time.
var (
	// Version is the semantic version of the build.
	Version = "1.0.0"
	// Commit is the VCS revision the binary was built from.
	Commit = "none"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Short returns the bare version number.
func Short() string {
	return Version
}

// Full returns the version with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
