// Package board binds the house devices to real pins through periph.io, or to
// an in-memory simulation for development machines and tests.
//
// Open initializes the host drivers, looks every configured pin up by name and
// opens the I²C bus shared by the joystick ADC and the OLED. Simulated builds
// the same Board over fake pins whose inputs can be changed at runtime.
package board
