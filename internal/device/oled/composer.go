package oled

import (
	"time"

	"github.com/oshokin/smart-home/internal/domain/home"
)

// DefaultHold is how long the disarmed and TV-off messages stay on screen.
const DefaultHold = 2 * time.Second

// Messages shown by the composer.
const (
	MessageArmed     = "ALARM ARMED"
	MessageTriggered = "ALARM TRIGGERED"
	MessageDisarmed  = "ALARM DISARMED"
	MessageTVOn      = "TV ON"
	MessageTVOff     = "TV OFF"
)

// Composer turns snapshots into the screen text.
type Composer struct {
	hold time.Duration

	seen     bool
	wasArmed bool
	wasTVOn  bool
	// queue holds transient messages back to back, each for hold.
	queue []transient
}

type transient struct {
	message string
	until   time.Time
}

// NewComposer creates a composer holding transient messages for hold.
func NewComposer(hold time.Duration) *Composer {
	return &Composer{hold: hold}
}

// Compose returns the text for snap at now. An empty string blanks the screen.
// When the alarm is disarmed and the TV turned off on the same snapshot, both
// messages are shown, TV OFF after ALARM DISARMED.
func (c *Composer) Compose(snap home.Snapshot, now time.Time) string {
	if c.seen {
		if c.wasArmed && !snap.Armed {
			c.push(MessageDisarmed, now)
		}

		if c.wasTVOn && !snap.DisplayOn {
			c.push(MessageTVOff, now)
		}
	}

	c.seen = true
	c.wasArmed = snap.Armed
	c.wasTVOn = snap.DisplayOn

	switch {
	case snap.Triggered:
		return MessageTriggered
	case snap.Armed:
		return MessageArmed
	}

	current := c.current(now)
	if current == MessageDisarmed || !snap.DisplayOn {
		return current
	}

	return MessageTVOn
}

func (c *Composer) push(message string, now time.Time) {
	start := now
	if n := len(c.queue); n > 0 && c.queue[n-1].until.After(now) {
		start = c.queue[n-1].until
	}

	c.queue = append(c.queue, transient{message: message, until: start.Add(c.hold)})
}

// current drops expired messages and returns the one on screen, if any.
func (c *Composer) current(now time.Time) string {
	for len(c.queue) > 0 && !now.Before(c.queue[0].until) {
		c.queue = c.queue[1:]
	}

	if len(c.queue) == 0 {
		return ""
	}

	return c.queue[0].message
}
