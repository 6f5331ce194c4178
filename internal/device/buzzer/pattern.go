package buzzer

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Pattern is Repetitions times a Tone burst at Frequency followed by a Pause.
type Pattern struct {
	Repetitions int
	Tone        time.Duration
	Pause       time.Duration
	Frequency   physic.Frequency
}

// DefaultPattern returns 8 x (80ms at 2500Hz, 50ms silence).
func DefaultPattern() Pattern {
	return Pattern{
		Repetitions: 8,
		Tone:        80 * time.Millisecond,
		Pause:       50 * time.Millisecond,
		Frequency:   2500 * physic.Hertz,
	}
}

// Duration is how long the pattern occupies the caller.
func (p Pattern) Duration() time.Duration {
	return time.Duration(p.Repetitions) * (p.Tone + p.Pause)
}
