// Package integration runs the whole home hub on the simulated board with
// real TCP listeners.
package integration
