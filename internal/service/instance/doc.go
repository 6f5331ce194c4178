// Package instance finds and stops processes by executable name.
// home-hub uses it to refuse a second copy, the updater to stop the binaries
// it is about to replace.
package instance
