// Package version exposes build metadata stamped at link time.
package version

// Values overridden via -ldflags at build time.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)
