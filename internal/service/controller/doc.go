// Package controller runs the house: a single cooperative poll loop that owns
// SystemState and every device handle.
//
// Each tick runs, strictly in this order: drain the button mailbox, drive the
// security light, check the alarm, refresh outputs and display, then serve the
// requests queued by the network transports. Transports never touch the state
// directly; Submit and Snapshot enqueue a request and wait for its reply.
//
// Run wires the whole process: settings, board, notifiers, HTTP page and gRPC API.
package controller
