package home

import (
	"github.com/oshokin/smart-home/internal/domain/alarm"
)

// SystemState is the single mutable state of the house.
// It is owned by the poll loop and passed by reference to every step.
type SystemState struct {
	// Lights holds the room light flags indexed by Room.
	Lights [RoomCount]bool
	// DisplayOn is the display (TV) flag.
	DisplayOn bool
	// StatusLED is the indicator switched by the on/off actions.
	StatusLED bool
	// SecurityLight is recomputed every tick from the front sensor and the light sensor.
	SecurityLight bool
	// Alarm is the intrusion state machine.
	Alarm alarm.State
}

// Toggle applies action. It returns false, without touching the state,
// when the action is unknown. The alarm transition is returned so that the
// caller can react to arming and disarming.
func (s *SystemState) Toggle(action Action) (alarm.Transition, bool) {
	phase := s.Alarm.Phase()
	unchanged := alarm.Transition{From: phase, To: phase}

	if room, ok := roomActions[action]; ok {
		s.Lights[room] = !s.Lights[room]

		return unchanged, true
	}

	switch action {
	case ActionDisplay:
		s.DisplayOn = !s.DisplayOn
	case ActionAlarm:
		return s.Alarm.Toggle(), true
	case ActionStatusOn:
		s.StatusLED = true
	case ActionStatusOff:
		s.StatusLED = false
	default:
		return unchanged, false
	}

	return unchanged, true
}

// Snapshot copies the state.
func (s *SystemState) Snapshot() Snapshot {
	return Snapshot{
		Lights:        s.Lights,
		DisplayOn:     s.DisplayOn,
		StatusLED:     s.StatusLED,
		SecurityLight: s.SecurityLight,
		Armed:         s.Alarm.Armed(),
		Triggered:     s.Alarm.Triggered(),
		Phase:         s.Alarm.Phase(),
	}
}

// Snapshot is an immutable copy of SystemState plus data read from the board.
type Snapshot struct {
	Lights        [RoomCount]bool
	DisplayOn     bool
	StatusLED     bool
	SecurityLight bool
	Armed         bool
	Triggered     bool
	Phase         alarm.Phase
	// TemperatureC is the last board temperature, zero when unknown.
	TemperatureC float64
}

// Light reports the flag of room.
func (s Snapshot) Light(room Room) bool {
	if room < 0 || room >= RoomCount {
		return false
	}

	return s.Lights[room]
}

// Fields renders the snapshot as a flat map, used by the gRPC transport and the CLI.
func (s Snapshot) Fields() map[string]any {
	fields := map[string]any{
		"display_on":     s.DisplayOn,
		"status_led":     s.StatusLED,
		"security_light": s.SecurityLight,
		"armed":          s.Armed,
		"triggered":      s.Triggered,
		"alarm":          s.Phase.String(),
		"temperature_c":  s.TemperatureC,
	}

	for room := range RoomCount {
		fields["light_"+room.Key()] = s.Lights[room]
	}

	return fields
}
