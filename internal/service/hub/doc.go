// Package hub wires the home-hub process: it opens the board, builds the
// devices and notifiers around the poll loop and serves the HTML page and the
// gRPC API until the context is canceled.
package hub
