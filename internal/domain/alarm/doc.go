// Package alarm contains the intrusion alarm state machine.
//
// State has three phases: disarmed, armed and idle, armed and triggered.
// A manual toggle arms or disarms; disarming always clears the trigger in the
// same step. While armed, Update feeds sensor readings through Thresholds and
// latches the trigger until the next disarm.
package alarm
