// Package oled shows the house status on a small screen.
//
// Composer decides what to show from consecutive snapshots; the alarm has
// priority over the TV flag and the "off" messages stay for a short hold time.
// Display redraws a Renderer only when the text changes.
package oled
