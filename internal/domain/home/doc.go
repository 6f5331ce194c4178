// Package home holds the state of the whole house owned by the poll loop:
// room lights, the display flag, the status LED, the security light and the alarm.
//
// Every remote request is an Action named after its HTTP path. Toggle applies
// one action and Snapshot copies the state for readers outside the loop.
package home
