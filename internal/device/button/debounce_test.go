package button

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func edgesAt(d *Debouncer, base time.Time, offsets ...time.Duration) int {
	accepted := 0

	for _, off := range offsets {
		if _, ok := d.OnEdge(base.Add(off)); ok {
			accepted++
		}
	}

	return accepted
}

// TestDebouncer_Window checks the strict greater-than rule at the 300ms boundary.
func TestDebouncer_Window(t *testing.T) {
	t.Parallel()

	base := time.Unix(1_700_000_000, 0)
	ms := time.Millisecond

	cases := []struct {
		name    string
		offsets []time.Duration
		want    int
	}{
		{name: "single edge", offsets: []time.Duration{0}, want: 1},
		{name: "inside window", offsets: []time.Duration{0, 299 * ms}, want: 1},
		{name: "at window", offsets: []time.Duration{0, 300 * ms}, want: 1},
		{name: "after window", offsets: []time.Duration{0, 301 * ms}, want: 2},
		{name: "bounce train", offsets: []time.Duration{0, 5 * ms, 12 * ms, 40 * ms, 290 * ms}, want: 1},
		// Rejected edges do not extend the window.
		{name: "window from accepted edge", offsets: []time.Duration{0, 200 * ms, 301 * ms}, want: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, edgesAt(NewDebouncer(300*ms), base, tc.offsets...))
		})
	}
}

// TestDebouncer_FirstEdgeAtZeroTime checks that the first press is never lost.
func TestDebouncer_FirstEdgeAtZeroTime(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(300 * time.Millisecond)

	ev, ok := d.OnEdge(time.Time{})
	require.True(t, ok)
	require.True(t, ev.At.IsZero())
}

// TestMailbox_SingleSlot checks that a pending event is never overwritten.
func TestMailbox_SingleSlot(t *testing.T) {
	t.Parallel()

	m := NewMailbox()

	_, ok := m.Drain()
	require.False(t, ok)

	first := Event{At: time.Unix(1, 0)}
	require.True(t, m.Post(first))
	require.False(t, m.Post(Event{At: time.Unix(2, 0)}))

	ev, ok := m.Drain()
	require.True(t, ok)
	require.Equal(t, first, ev)

	_, ok = m.Drain()
	require.False(t, ok)
}
