package ranging

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/oshokin/smart-home/internal/domain/sensor"
)

const (
	// MicrosecondsPerCm converts a round-trip echo duration to centimeters.
	MicrosecondsPerCm = 58.0

	settleLow    = 2 * time.Microsecond
	triggerPulse = 10 * time.Microsecond
)

// TriggerPin is the output side of the sensor.
type TriggerPin interface {
	Out(l gpio.Level) error
}

// EchoPin is the input side of the sensor.
type EchoPin interface {
	Read() gpio.Level
}

// Sensor measures distances with one trigger/echo pin pair.
// It keeps no state between measurements, so several sensors can be
// alternated freely on the same goroutine.
type Sensor struct {
	// name identifies the sensor in logs.
	name string
	// trigger starts a measurement.
	trigger TriggerPin
	// echo stays high for the round-trip time of the pulse.
	echo EchoPin
	// now reads the clock used for the echo timestamps and the deadline.
	now func() time.Time
	// sleep holds the trigger levels.
	sleep func(time.Duration)
}

// Option customizes a Sensor.
type Option func(*Sensor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sensor) {
		s.now = now
	}
}

// WithSleep replaces time.Sleep for the trigger pulse.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Sensor) {
		s.sleep = sleep
	}
}

// New creates a sensor over the given pins.
func New(name string, trigger TriggerPin, echo EchoPin, opts ...Option) *Sensor {
	s := &Sensor{
		name:    name,
		trigger: trigger,
		echo:    echo,
		now:     time.Now,
		sleep:   time.Sleep,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the sensor name.
func (s *Sensor) Name() string {
	return s.name
}

// Measure sends one pulse and times the echo.
// The call never takes much longer than timeout: when the echo does not rise
// or does not fall in time, the result is invalid and the error is nil.
// Both waits share one deadline measured from the pulse, so an echo that
// rises late and ends after timeout is invalid even when each wait alone
// would have fit. With the 30ms default that is beyond the sensor's range.
// An error is returned only when the trigger pin cannot be driven.
func (s *Sensor) Measure(timeout time.Duration) (sensor.RangingResult, error) {
	if err := s.pulse(); err != nil {
		return sensor.Invalid(), err
	}

	deadline := s.now().Add(timeout)

	start, ok := s.waitFor(gpio.High, deadline)
	if !ok {
		return sensor.Invalid(), nil
	}

	end, ok := s.waitFor(gpio.Low, deadline)
	if !ok {
		return sensor.Invalid(), nil
	}

	return sensor.RangingResult{
		DistanceCm: Distance(end.Sub(start)),
		Valid:      true,
	}, nil
}

// Distance converts a round-trip echo duration to centimeters.
func Distance(echo time.Duration) float64 {
	return float64(echo.Microseconds()) / MicrosecondsPerCm
}

func (s *Sensor) pulse() error {
	for _, step := range []struct {
		level gpio.Level
		hold  time.Duration
	}{
		{level: gpio.Low, hold: settleLow},
		{level: gpio.High, hold: triggerPulse},
		{level: gpio.Low},
	} {
		if err := s.trigger.Out(step.level); err != nil {
			return fmt.Errorf("drive %s trigger %s: %w", s.name, step.level, err)
		}

		if step.hold > 0 {
			s.sleep(step.hold)
		}
	}

	return nil
}

// waitFor polls the echo pin until it reads level or the deadline passes.
// It returns the time the level was first observed.
func (s *Sensor) waitFor(level gpio.Level, deadline time.Time) (time.Time, bool) {
	for {
		now := s.now()
		if s.echo.Read() == level {
			return now, true
		}

		if now.After(deadline) {
			return time.Time{}, false
		}
	}
}
