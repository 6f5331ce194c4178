// Package version exposes build metadata for the home-hub and home-ctl binaries.
//
// Version, Commit and BuildTime are injected at build time via -ldflags and
// default to placeholder values for local builds. The update flow compares
// Short against the published release manifest.
package version
