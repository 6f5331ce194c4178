package oled

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/logger"
)

// Renderer draws text.
type Renderer interface {
	Render(ctx context.Context, text string) error
}

// Display composes snapshots and redraws on change.
// Show is called from the poll loop only; Text may be called from anywhere.
type Display struct {
	composer *Composer
	renderer Renderer
	now      func() time.Time

	mu      sync.Mutex
	drawn   bool
	current string
}

// NewDisplay creates a display over renderer.
func NewDisplay(renderer Renderer, hold time.Duration) *Display {
	return &Display{
		composer: NewComposer(hold),
		renderer: renderer,
		now:      time.Now,
	}
}

// Show renders snap when its text differs from what is on screen.
func (d *Display) Show(ctx context.Context, snap home.Snapshot) error {
	text := d.composer.Compose(snap, d.now())

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drawn && text == d.current {
		return nil
	}

	if err := d.renderer.Render(ctx, text); err != nil {
		return fmt.Errorf("render %q: %w", text, err)
	}

	d.drawn = true
	d.current = text

	return nil
}

// Text returns what is on screen.
func (d *Display) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.current
}

// LogRenderer writes screen changes to the log, for boards without a screen.
type LogRenderer struct{}

// Render implements Renderer.
func (LogRenderer) Render(ctx context.Context, text string) error {
	if text == "" {
		logger.Info(ctx, "Screen cleared")

		return nil
	}

	logger.InfoKV(ctx, "Screen updated", "text", text)

	return nil
}
