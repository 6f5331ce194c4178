package version

import "fmt"

// Build metadata, overridden with -ldflags "-X".
var (
	Version   = "0.3.0"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full is the line printed by the version subcommand.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// UserAgent identifies program in outgoing HTTP requests.
func UserAgent(program string) string {
	return program + "/" + Version
}

// KV returns the build metadata as logger key-value pairs.
func KV() []any {
	return []any{"version", Version, "commit", Commit, "built_at", BuildTime}
}
