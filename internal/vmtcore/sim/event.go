package sim

import "sync"

// Event is one notable occurrence the scheduler reports, mirroring the
// teacher engine's Event/EmitEvent shape: a flat, loggable/serializable
// record rather than a hierarchy of event types. Categories in use:
// "tick_started", "tick_finished", "pairing", "unpairing", "trade",
// "trade_attempt", "forage", "regen". DeltaX/DeltaY/Price/Reason are only
// meaningful for the categories that carry them (spec.md §6.3): "trade"
// sets DeltaX/DeltaY/Price, "unpairing" sets Reason ("trade_terminal",
// "trade_failed" or "mode_switch"), "trade_attempt" sets Reason
// ("trade_failed"), "regen" sets DeltaX as the amount regrown.
type Event struct {
	Tick        uint64  `json:"tick" db:"tick"`
	Category    string  `json:"category" db:"category"`
	Description string  `json:"description" db:"description"`
	AgentA      uint64  `json:"agent_a,omitempty" db:"agent_a"`
	AgentB      uint64  `json:"agent_b,omitempty" db:"agent_b"`
	DeltaX      int     `json:"delta_x,omitempty" db:"delta_x"`
	DeltaY      int     `json:"delta_y,omitempty" db:"delta_y"`
	Price       float64 `json:"price,omitempty" db:"price"`
	Reason      string  `json:"reason,omitempty" db:"reason"`
}

// eventBus fans a run's events out to subscribers over buffered
// channels, dropping on a full buffer rather than blocking the tick
// loop for a slow consumer (same policy as the teacher engine's
// EmitEvent).
type eventBus struct {
	mu        sync.RWMutex
	subs      map[int]chan Event
	nextSubID int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

// Subscribe returns a subscriber ID and a buffered channel of events.
func (b *eventBus) Subscribe() (int, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	ch := make(chan Event, 256)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe closes and removes a subscriber's channel.
func (b *eventBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *eventBus) emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
