// Package updater brings a hub or control machine to the published release.
//
// It compares local files with the checksums of the release manifest,
// downloads what differs, replaces it in place and starts the role executable
// again.
package updater
