package alarm

import "fmt"

// Cause identifies which sensor detected an intrusion.
type Cause int

const (
	// CauseNone is the zero value: nothing detected.
	CauseNone Cause = iota
	// CauseProximity means the zone sensor measured something too close.
	CauseProximity
	// CauseDoor means a door axis left the closed window.
	CauseDoor
)

// String implements fmt.Stringer.
func (c Cause) String() string {
	switch c {
	case CauseProximity:
		return "proximity"
	case CauseDoor:
		return "door"
	default:
		return "none"
	}
}

// Thresholds are the fixed limits of the intrusion rule.
type Thresholds struct {
	// IntrusionCm triggers when a valid zone reading is strictly closer.
	IntrusionCm float64
	// AxisMin and AxisMax bound the inclusive window of a closed door.
	AxisMin uint16
	AxisMax uint16
}

// DefaultThresholds returns the reference limits: 15cm and [1800, 2200].
func DefaultThresholds() Thresholds {
	return Thresholds{
		IntrusionCm: 15,
		AxisMin:     1800,
		AxisMax:     2200,
	}
}

// Detect applies the intrusion rule. Either condition alone is sufficient.
// An invalid zone reading and an unreadable door count as no detection.
func (t Thresholds) Detect(r Reading) (Cause, bool) {
	if r.DoorValid && (t.outside(r.Door.AxisX) || t.outside(r.Door.AxisY)) {
		return CauseDoor, true
	}

	if r.Zone.Within(t.IntrusionCm) {
		return CauseProximity, true
	}

	return CauseNone, false
}

// Describe renders the reading that explains cause, for logs and notifications.
func (t Thresholds) Describe(cause Cause, r Reading) string {
	switch cause {
	case CauseDoor:
		return fmt.Sprintf("door moved (%s, window %d-%d)", r.Door, t.AxisMin, t.AxisMax)
	case CauseProximity:
		return fmt.Sprintf("presence at %s (limit %.0fcm)", r.Zone, t.IntrusionCm)
	default:
		return "no intrusion"
	}
}

func (t Thresholds) outside(v uint16) bool {
	return v < t.AxisMin || v > t.AxisMax
}
