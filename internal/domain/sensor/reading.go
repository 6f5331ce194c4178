package sensor

import "fmt"

// MaxRawAxis is the top of the 12-bit scale used for joystick samples.
const MaxRawAxis = 4095

// RangingResult is the outcome of one ultrasonic measurement.
type RangingResult struct {
	// DistanceCm is the measured distance. Meaningless when Valid is false.
	DistanceCm float64
	// Valid is false when the echo did not complete before the timeout.
	Valid bool
}

// Invalid returns the result of a measurement whose echo never completed.
func Invalid() RangingResult {
	return RangingResult{}
}

// Within reports whether the reading is valid and strictly closer than limitCm.
// An invalid reading is never within any limit.
func (r RangingResult) Within(limitCm float64) bool {
	return r.Valid && r.DistanceCm < limitCm
}

// String implements fmt.Stringer.
func (r RangingResult) String() string {
	if !r.Valid {
		return "no echo"
	}

	return fmt.Sprintf("%.1fcm", r.DistanceCm)
}

// DoorPositionSample holds two analog axis positions used as a stand-in for a
// door or window contact. A closed door reads near the middle of the scale.
type DoorPositionSample struct {
	AxisX uint16
	AxisY uint16
}

// String implements fmt.Stringer.
func (s DoorPositionSample) String() string {
	return fmt.Sprintf("x=%d y=%d", s.AxisX, s.AxisY)
}
