// Package button turns the edges of a push button into debounced toggle events.
//
// The Watcher goroutine owns the pin and the Debouncer. Accepted events go into
// a single-slot Mailbox that the poll loop drains once per tick, so the button
// never touches the alarm state directly.
package button
