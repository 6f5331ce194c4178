package notify

import (
	"context"
	"time"

	"github.com/oshokin/smart-home/internal/logger"
)

// Dispatcher queues events and delivers them to every notifier in order.
type Dispatcher struct {
	queue     chan Event
	notifiers []Notifier
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher with a queue of size events.
func NewDispatcher(size int, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		queue:     make(chan Event, size),
		notifiers: notifiers,
		timeout:   timeout,
	}
}

// Publish enqueues ev without blocking. It returns false when the queue is full
// and the event was dropped.
func (d *Dispatcher) Publish(ctx context.Context, ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		logger.WarnKV(ctx, "Notification queue full, event dropped", "id", ev.ID, "kind", ev.Kind)

		return false
	}
}

// Run delivers events until ctx is done, then flushes what is still queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			d.flush(context.WithoutCancel(ctx))

			return
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	for _, n := range d.notifiers {
		deliveryCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := n.Notify(deliveryCtx, ev)

		cancel()

		if err != nil {
			logger.WarnKV(ctx, "Notification failed", "notifier", n.Name(), "id", ev.ID, "error", err)
		}
	}
}
