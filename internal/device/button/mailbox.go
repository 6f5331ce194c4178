package button

// Mailbox holds at most one pending event between the watcher and the poll loop.
// The zero value is not usable; create it with NewMailbox.
type Mailbox struct {
	slot chan Event
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan Event, 1)}
}

// Post stores ev unless an event is already pending, in which case ev is
// dropped and false is returned. It never blocks.
func (m *Mailbox) Post(ev Event) bool {
	select {
	case m.slot <- ev:
		return true
	default:
		return false
	}
}

// Drain takes the pending event, if any. It never blocks.
func (m *Mailbox) Drain() (Event, bool) {
	select {
	case ev := <-m.slot:
		return ev, true
	default:
		return Event{}, false
	}
}
