// Package sensor holds the raw readings the alarm and the lighting logic consume.
//
// Readings are plain values created per measurement and never stored beyond
// the tick that produced them.
package sensor
