package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/feedsink/feedsink/internal/bus"
)

// State represents a feed connection state.
type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
	Reconnecting State = "RECONNECTING"
	GivenUp      State = "GIVEN_UP"
)

// validTransitions defines allowed state transitions. GivenUp is terminal:
// once the reconnect budget is exhausted the connector stays down until the
// process is restarted.
var validTransitions = map[State][]State{
	Disconnected: {Connecting},
	Connecting:   {Connected, Reconnecting},
	Connected:    {Reconnecting},
	Reconnecting: {Connecting, GivenUp},
	GivenUp:      {},
}

// Machine tracks and enforces feed connection state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindFeedStatus,
			Timestamp: time.Now(),
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
