// Package buzzer plays the audible alarm pattern on a piezo buzzer.
//
// Alerter.Alert blocks the caller for the whole pattern (about one second with
// the defaults), which stalls a poll loop calling it. Async plays the same
// pattern on its own goroutine and can be silenced.
package buzzer
