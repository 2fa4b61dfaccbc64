// Package bus provides the in-process event bus connecting the wallet
// session manager to the record assembler. The session side publishes,
// the sync side subscribes, and the dependency graph stays acyclic.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Topic identifies a session event stream.
type Topic string

const (
	// TopicSessionConnected fires after a successful connect or a silent
	// reconnect discovered an authorized account.
	TopicSessionConnected Topic = "session.connected"

	// TopicAccountsChanged fires when the wallet's account selection
	// changes.
	TopicAccountsChanged Topic = "session.accountsChanged"

	// TopicNetworkChanged fires when the wallet's active network changes.
	// A changed network invalidates every resolved contract handle.
	TopicNetworkChanged Topic = "session.networkChanged"
)

// Event is the payload delivered to handlers.
type Event struct {
	Topic     Topic
	Account   string // lowercase hex address, empty when disconnected
	NetworkID uint64 // zero when unknown
}

// Handler receives events for a subscribed topic. Handlers run
// synchronously in registration order; a slow handler delays the rest.
type Handler func(Event)

// HandlerID uniquely identifies a handler registration. Each call to
// Subscribe generates a new HandlerID, allowing multiple subscribers to
// the same topic with independent lifecycles.
type HandlerID string

type registration struct {
	id      HandlerID
	handler Handler
}

// Bus dispatches session events in-process.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]registration
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[Topic][]registration),
	}
}

// Subscribe registers a handler for a topic and returns its HandlerID.
func (b *Bus) Subscribe(topic Topic, handler Handler) HandlerID {
	id := HandlerID(uuid.NewString())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], registration{id: id, handler: handler})
	return id
}

// Unsubscribe removes a handler registration. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(topic Topic, id HandlerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[topic]
	for i, reg := range list {
		if reg.id == id {
			b.handlers[topic] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every handler of its topic, in
// registration order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	snapshot := make([]registration, len(b.handlers[event.Topic]))
	copy(snapshot, b.handlers[event.Topic])
	b.mu.RUnlock()

	for _, reg := range snapshot {
		reg.handler(event)
	}
}
