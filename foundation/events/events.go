// Package events fans chain events out to subscribers such as websocket
// clients.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Set of event kinds.
const (
	KindBlock = "block"
	KindTrace = "trace"
	KindReset = "reset"
)

// Event describes something that happened to the chain. Trace events carry
// the status and details of the trace entry that was added.
type Event struct {
	Kind      string `json:"kind"`
	Index     uint64 `json:"index"`
	Hash      string `json:"hash"`
	Status    string `json:"status,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// subscriberBuffer bounds how far a slow subscriber can fall behind before
// events are dropped for it.
const subscriberBuffer = 100

type subscriber struct {
	ch    chan Event
	kinds map[string]bool
}

func (sub subscriber) wants(kind string) bool {
	return len(sub.kinds) == 0 || sub.kinds[kind]
}

// Events keeps the set of subscribers keyed by id.
type Events struct {
	mu      sync.RWMutex
	subs    map[string]subscriber
	dropped atomic.Uint64
}

// New constructs an empty set of subscribers.
func New() *Events {
	return &Events{
		subs: make(map[string]subscriber),
	}
}

// Acquire registers a subscriber under the id and returns its channel. When
// kinds are provided only events of those kinds are delivered. Acquiring an
// id that is already registered returns the existing channel unchanged.
func (evt *Events) Acquire(id string, kinds ...string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	evt.subs[id] = sub

	return sub.ch
}

// Release unregisters the subscriber and closes its channel.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Send delivers the event to every interested subscriber without blocking.
// A subscriber with a full buffer misses the event.
func (evt *Events) Send(e Event) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.subs {
		if !sub.wants(e.Kind) {
			continue
		}

		select {
		case sub.ch <- e:
		default:
			evt.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}

// Shutdown releases every subscriber.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}
