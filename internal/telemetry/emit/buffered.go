package emit

import "sync"

// Buffered collects events in memory and does not forward them to any other
// emitter; callers read them back with Events.
type Buffered struct {
	mu     sync.Mutex
	events []Event
}

func NewBuffered() *Buffered { return &Buffered{} }

func (b *Buffered) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// Events returns a copy of every event buffered so far.
func (b *Buffered) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}
