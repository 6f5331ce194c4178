package buzzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

var errNoPWM = errors.New("pwm not supported")

// recordingPin logs every call with the elapsed time since start.
type recordingPin struct {
	mu     sync.Mutex
	start  time.Time
	pwmErr error
	calls  []call
	level  gpio.Level
}

type call struct {
	at   time.Duration
	on   bool
	freq physic.Frequency
}

func newRecordingPin() *recordingPin {
	return &recordingPin{start: time.Now()}
}

func (p *recordingPin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.level = l
	p.calls = append(p.calls, call{at: time.Since(p.start), on: bool(l)})

	return nil
}

func (p *recordingPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pwmErr != nil {
		return p.pwmErr
	}

	p.level = gpio.High
	p.calls = append(p.calls, call{at: time.Since(p.start), on: duty > 0, freq: f})

	return nil
}

func (p *recordingPin) tones() []call {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result []call

	for _, c := range p.calls {
		if c.on {
			result = append(result, c)
		}
	}

	return result
}

func (p *recordingPin) Level() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.level
}

// TestAlerter_BlocksForPattern checks the 8 x (80ms + 50ms) timing.
func TestAlerter_BlocksForPattern(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := newRecordingPin()
		a := New(pin, DefaultPattern())

		started := time.Now()
		require.NoError(t, a.Alert(context.Background()))
		require.Equal(t, 1040*time.Millisecond, time.Since(started))
		require.Equal(t, DefaultPattern().Duration(), time.Since(started))

		tones := pin.tones()
		require.Len(t, tones, 8)

		for i, tone := range tones {
			require.Equal(t, time.Duration(i)*130*time.Millisecond, tone.at)
			require.Equal(t, 2500*physic.Hertz, tone.freq)
		}

		require.Equal(t, gpio.Low, pin.Level())
	})
}

// TestAlerter_FallsBackWithoutPWM checks the steady level fallback.
func TestAlerter_FallsBackWithoutPWM(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := newRecordingPin()
		pin.pwmErr = errNoPWM

		a := New(pin, Pattern{Repetitions: 2, Tone: 10 * time.Millisecond, Pause: 10 * time.Millisecond})
		require.NoError(t, a.Alert(context.Background()))

		tones := pin.tones()
		require.Len(t, tones, 2)
		require.Zero(t, tones[0].freq)
		require.Equal(t, gpio.Low, pin.Level())
	})
}

// TestAlerter_Cancel checks that a cancelled pattern stops and leaves the buzzer off.
func TestAlerter_Cancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := newRecordingPin()
		a := New(pin, DefaultPattern())

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := a.Alert(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 100*time.Millisecond, time.Since(pin.start))
		require.Equal(t, gpio.Low, pin.Level())
	})
}

// TestAlerter_PeriphPin plays a short pattern on a periph fake pin.
func TestAlerter_PeriphPin(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := &gpiotest.Pin{N: "GPIO21"}
		a := New(pin, Pattern{Repetitions: 1, Tone: time.Millisecond, Pause: time.Millisecond, Frequency: physic.KiloHertz})

		require.NoError(t, a.Alert(context.Background()))
		require.Equal(t, gpio.DutyHalf, pin.D)
		require.Equal(t, physic.KiloHertz, pin.F)
		require.Equal(t, gpio.Low, pin.Read())
		a.Silence()
	})
}

// TestAsync_ReturnsImmediately checks the non-blocking variant.
func TestAsync_ReturnsImmediately(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := newRecordingPin()
		a := NewAsync(New(pin, DefaultPattern()))

		started := time.Now()
		require.NoError(t, a.Alert(context.Background()))
		require.Zero(t, time.Since(started))
		require.True(t, a.Playing())

		// A second alert while playing does not restart the pattern.
		time.Sleep(500 * time.Millisecond)
		require.NoError(t, a.Alert(context.Background()))

		time.Sleep(600 * time.Millisecond)
		synctest.Wait()
		require.False(t, a.Playing())
		require.Len(t, pin.tones(), 8)

		// Once over, it can play again.
		require.NoError(t, a.Alert(context.Background()))
		require.True(t, a.Playing())
		a.Silence()
		require.False(t, a.Playing())
	})
}

// TestAsync_Silence checks that silencing stops the buzzer at once.
func TestAsync_Silence(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		pin := newRecordingPin()
		a := NewAsync(New(pin, DefaultPattern()))

		// Silence without a pattern is a no-op.
		a.Silence()

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, a.Alert(ctx))

		// The pattern does not depend on the caller context.
		cancel()
		time.Sleep(200 * time.Millisecond)
		require.True(t, a.Playing())

		a.Silence()
		require.False(t, a.Playing())
		require.Equal(t, gpio.Low, pin.Level())
		require.Len(t, pin.tones(), 2)
	})
}
