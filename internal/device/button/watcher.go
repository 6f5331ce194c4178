package button

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/oshokin/smart-home/internal/logger"
)

// DefaultPollInterval bounds how long the watcher waits for an edge before
// checking for cancellation.
const DefaultPollInterval = 100 * time.Millisecond

// Pin is the input side of the button. It is wired to ground, so a press
// produces a falling edge on a pulled-up input.
type Pin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

// Watcher waits for button edges and posts debounced events.
type Watcher struct {
	pin       Pin
	debouncer *Debouncer
	mailbox   *Mailbox
	poll      time.Duration
}

// NewWatcher creates a watcher posting to mailbox.
func NewWatcher(pin Pin, window time.Duration, mailbox *Mailbox) *Watcher {
	return &Watcher{
		pin:       pin,
		debouncer: NewDebouncer(window),
		mailbox:   mailbox,
		poll:      DefaultPollInterval,
	}
}

// Run configures the pin and watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("configure button pin: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !w.pin.WaitForEdge(w.poll) {
			continue
		}

		ev, ok := w.debouncer.OnEdge(time.Now())
		if !ok {
			logger.Debug(ctx, "Button bounce ignored")

			continue
		}

		if !w.mailbox.Post(ev) {
			logger.Debug(ctx, "Button press dropped: previous press still pending")
		}
	}
}
