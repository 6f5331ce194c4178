package buzzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/oshokin/smart-home/internal/logger"
)

// Pin drives the buzzer. PWM produces the tone; pins without hardware PWM fall
// back to a steady level, which is enough for an active buzzer.
type Pin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Alerter plays the pattern synchronously.
type Alerter struct {
	pin     Pin
	pattern Pattern
	// noPWM is set after the first PWM failure to skip it from then on.
	noPWM bool
}

// New creates a blocking alerter.
func New(pin Pin, pattern Pattern) *Alerter {
	return &Alerter{
		pin:     pin,
		pattern: pattern,
	}
}

// Pattern returns the configured pattern.
func (a *Alerter) Pattern() Pattern {
	return a.pattern
}

// Alert plays the whole pattern and returns when it is over, after
// Pattern().Duration(). It returns early with ctx.Err() when ctx is done.
// The buzzer is always left silent.
func (a *Alerter) Alert(ctx context.Context) (err error) {
	defer func() {
		if offErr := a.pin.Out(gpio.Low); offErr != nil {
			err = errors.Join(err, fmt.Errorf("silence buzzer: %w", offErr))
		}
	}()

	for range a.pattern.Repetitions {
		if err = a.tone(ctx); err != nil {
			return err
		}

		if err = sleep(ctx, a.pattern.Tone); err != nil {
			return err
		}

		if err = a.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("stop tone: %w", err)
		}

		if err = sleep(ctx, a.pattern.Pause); err != nil {
			return err
		}
	}

	return nil
}

// Silence does nothing: a blocking pattern is already over when the caller
// gets control back.
func (a *Alerter) Silence() {}

func (a *Alerter) tone(ctx context.Context) error {
	if !a.noPWM {
		err := a.pin.PWM(gpio.DutyHalf, a.pattern.Frequency)
		if err == nil {
			return nil
		}

		logger.WarnKV(ctx, "Buzzer PWM unavailable, using a steady level", "error", err)
		a.noPWM = true
	}

	if err := a.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("start tone: %w", err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Async plays the pattern on a background goroutine.
type Async struct {
	alerter *Alerter

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing chan struct{}
}

// NewAsync wraps a blocking alerter.
func NewAsync(alerter *Alerter) *Async {
	return &Async{alerter: alerter}
}

// Alert starts the pattern and returns immediately. A pattern that is still
// playing is not restarted. The pattern outlives ctx; only Silence stops it.
func (a *Async) Alert(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.playing != nil {
		select {
		case <-a.playing:
		default:
			return nil
		}
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	a.cancel = cancel
	a.playing = done

	go func() {
		defer close(done)
		defer cancel()

		if err := a.alerter.Alert(playCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorKV(playCtx, "Alert pattern failed", "error", err)
		}
	}()

	return nil
}

// Silence stops a playing pattern and waits until the buzzer is off.
func (a *Async) Silence() {
	a.mu.Lock()
	cancel, done := a.cancel, a.playing
	a.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Playing reports whether a pattern is currently sounding.
func (a *Async) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.playing == nil {
		return false
	}

	select {
	case <-a.playing:
		return false
	default:
		return true
	}
}
