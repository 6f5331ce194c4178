// Package packager writes the release manifest consumed by the updater.
//
// It saves the settings shipped with the release, hashes every release file
// of the current platform and maps the files to the hub and ctl roles.
package packager
