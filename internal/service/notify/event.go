package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/smart-home/internal/domain/alarm"
)

// Kind is the type of alarm transition.
type Kind string

const (
	// KindArmed is sent when the alarm is armed.
	KindArmed Kind = "armed"
	// KindDisarmed is sent when the alarm is disarmed.
	KindDisarmed Kind = "disarmed"
	// KindTriggered is sent when an intrusion is detected.
	KindTriggered Kind = "triggered"
)

// Event describes one alarm transition.
type Event struct {
	ID     uuid.UUID `json:"id"`
	Kind   Kind      `json:"kind"`
	At     time.Time `json:"at"`
	Source string    `json:"source"`
	Reason string    `json:"reason,omitempty"`
}

// NewEvent creates an event with a fresh id.
func NewEvent(kind Kind, at time.Time, source, reason string) Event {
	return Event{
		ID:     uuid.New(),
		Kind:   kind,
		At:     at,
		Source: source,
		Reason: reason,
	}
}

// KindOf maps a transition to an event kind. It returns false for steps that
// did not change the phase.
func KindOf(tr alarm.Transition) (Kind, bool) {
	switch {
	case tr.Triggered():
		return KindTriggered, true
	case tr.Disarmed():
		return KindDisarmed, true
	case tr.Armed():
		return KindArmed, true
	default:
		return "", false
	}
}
