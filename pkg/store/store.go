// Package store provides the reactive key/value state shared between the
// sync pipeline and the rendering layer. It is a real-time mirror, not a
// cache: values have no TTL and are only ever replaced wholesale.
package store

import "sync"

// Well-known keys written by the sync pipeline and observed by the
// rendering layer.
const (
	KeyConnectedAccount = "connectedAccount"
	KeyNFTs             = "nfts"
	KeyTransactions     = "transactions"
	KeyContractStatus   = "contractStatus"
	KeyAlert            = "alert"
)

// Alert is the value shape published under KeyAlert for user-visible
// notifications.
type Alert struct {
	Message string
	Color   string // "green" for success, "red" for failure
}

// Handler is invoked synchronously on every Set of a subscribed key.
type Handler func(key string, value interface{})

// Unsubscribe revokes a subscription. Safe to call more than once and
// safe to call from inside the handler it revokes.
type Unsubscribe func()

// subscription holds one registered handler. The active flag is checked
// under the store mutex immediately before each delivery, so revoking
// during a notification round suppresses any remaining deliveries.
type subscription struct {
	handler Handler
	active  bool
}

// Store is an explicitly constructed reactive store instance. It is
// injected into every component that needs it; there is no package-level
// global.
type Store struct {
	mu     sync.Mutex
	values map[string]interface{}
	subs   map[string][]*subscription
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values: make(map[string]interface{}),
		subs:   make(map[string][]*subscription),
	}
}

// Get returns the current value for key, or nil if never set.
func (s *Store) Get(key string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// GetDefault returns the current value for key, or def if never set.
func (s *Store) GetDefault(key string, def interface{}) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Set replaces the value for key and synchronously notifies every
// subscriber of that key, in subscription order. There is no coalescing:
// every Set triggers one notification round even if the value is
// unchanged. Callers that care about redundant writes must avoid them.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.values[key] = value
	// Snapshot the subscriber list so handlers registered during this
	// round do not receive the in-flight notification.
	snapshot := make([]*subscription, len(s.subs[key]))
	copy(snapshot, s.subs[key])
	s.mu.Unlock()

	for _, sub := range snapshot {
		s.mu.Lock()
		active := sub.active
		s.mu.Unlock()
		if active {
			sub.handler(key, value)
		}
	}
}

// Subscribe registers a handler for key and returns a revocable
// capability that deregisters it.
func (s *Store) Subscribe(key string, handler Handler) Unsubscribe {
	sub := &subscription{handler: handler, active: true}

	s.mu.Lock()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !sub.active {
			return
		}
		sub.active = false
		list := s.subs[key]
		for i, candidate := range list {
			if candidate == sub {
				s.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}
