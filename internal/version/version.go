// Package version holds build metadata injected via ldflags. The CLI
// reports Version through cobra's --version and logs both on startup.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)
