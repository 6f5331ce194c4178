package alarm

import (
	"github.com/oshokin/smart-home/internal/domain/sensor"
)

// Phase is the externally visible state of the alarm.
type Phase int

const (
	// PhaseDisarmed means the alarm is not monitoring.
	PhaseDisarmed Phase = iota
	// PhaseArmedIdle means the alarm is monitoring and nothing was detected.
	PhaseArmedIdle
	// PhaseArmedTriggered means an intrusion was detected since the alarm was armed.
	PhaseArmedTriggered
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseDisarmed:
		return "disarmed"
	case PhaseArmedIdle:
		return "armed"
	case PhaseArmedTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Transition describes the effect of one state machine step.
type Transition struct {
	// From is the phase before the step.
	From Phase
	// To is the phase after the step.
	To Phase
	// Cause is set when the step entered PhaseArmedTriggered.
	Cause Cause
}

// Changed reports whether the step moved the machine to another phase.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Triggered reports whether the step entered PhaseArmedTriggered.
func (t Transition) Triggered() bool {
	return t.Changed() && t.To == PhaseArmedTriggered
}

// Disarmed reports whether the step left an armed phase.
func (t Transition) Disarmed() bool {
	return t.Changed() && t.To == PhaseDisarmed
}

// Armed reports whether the step armed a disarmed alarm.
func (t Transition) Armed() bool {
	return t.From == PhaseDisarmed && t.To == PhaseArmedIdle
}

// State holds the armed and triggered flags.
// Fields are unexported so that triggered can never be true while disarmed.
// The zero value is a disarmed alarm.
type State struct {
	armed     bool
	triggered bool
}

// Armed reports whether the alarm is monitoring.
func (s *State) Armed() bool {
	return s.armed
}

// Triggered reports whether an intrusion was detected while armed.
func (s *State) Triggered() bool {
	return s.triggered
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	switch {
	case s.triggered:
		return PhaseArmedTriggered
	case s.armed:
		return PhaseArmedIdle
	default:
		return PhaseDisarmed
	}
}

// Toggle handles a manual arm/disarm request.
// Disarming clears the trigger in the same step, whatever the detection state.
func (s *State) Toggle() Transition {
	from := s.Phase()

	if s.armed {
		s.armed = false
		s.triggered = false
	} else {
		s.armed = true
	}

	return Transition{From: from, To: s.Phase()}
}

// Update evaluates one tick of readings.
// Nothing happens while disarmed or already triggered: a triggered alarm only
// leaves its phase through Toggle.
func (s *State) Update(reading Reading, thresholds Thresholds) Transition {
	from := s.Phase()
	if from != PhaseArmedIdle {
		return Transition{From: from, To: from}
	}

	cause, detected := thresholds.Detect(reading)
	if !detected {
		return Transition{From: from, To: from}
	}

	s.triggered = true

	return Transition{From: from, To: s.Phase(), Cause: cause}
}

// Reading is the input of one alarm check.
type Reading struct {
	// Zone is the alarm-zone ultrasonic measurement.
	Zone sensor.RangingResult
	// Door is the joystick door-position sample.
	Door sensor.DoorPositionSample
	// DoorValid is false when the ADC could not be read this tick.
	DoorValid bool
}
