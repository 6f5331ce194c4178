package notify

import (
	"context"

	"github.com/oshokin/smart-home/internal/logger"
)

// Notifier delivers an event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// Log writes events to the process log.
type Log struct{}

// Name implements Notifier.
func (Log) Name() string {
	return "log"
}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, ev Event) error {
	kvs := []any{"id", ev.ID, "kind", ev.Kind, "source", ev.Source}
	if ev.Reason != "" {
		kvs = append(kvs, "reason", ev.Reason)
	}

	if ev.Kind == KindTriggered {
		logger.WarnKV(ctx, "Alarm event", kvs...)

		return nil
	}

	logger.InfoKV(ctx, "Alarm event", kvs...)

	return nil
}
