package button

import "time"

// Event is one accepted button press.
type Event struct {
	// At is the time of the edge that produced the event.
	At time.Time
}

// Debouncer accepts an edge only when it is strictly more than window after
// the previously accepted one. The first edge is always accepted.
type Debouncer struct {
	// window is the minimum spacing between accepted edges.
	window time.Duration
	// last is the time of the previously accepted edge.
	last time.Time
	// hasAccepted is false until the first edge.
	hasAccepted bool
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// OnEdge records an edge and returns the event it produced, if any.
// Rejected edges do not move the window.
func (d *Debouncer) OnEdge(at time.Time) (Event, bool) {
	if d.hasAccepted && at.Sub(d.last) <= d.window {
		return Event{}, false
	}

	d.last = at
	d.hasAccepted = true

	return Event{At: at}, true
}
