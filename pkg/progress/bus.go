// Package progress relays pipeline progress events to subscribers. The bus
// is fan-out only: synchronous ordered delivery to everyone currently
// subscribed, no replay for late subscribers.
package progress

import (
	"sync"

	"github.com/wantlist/discogs-collector/pkg/discogs"
)

// EventType tags a progress event.
type EventType string

const (
	// EventListing reports bulk listing fetch progress.
	EventListing EventType = "listing"

	// EventEnrichment reports per-record enrichment progress.
	EventEnrichment EventType = "enrichment"

	// EventRecordEnriched carries one fully processed record.
	EventRecordEnriched EventType = "record_enriched"

	// EventComplete signals the end of a run.
	EventComplete EventType = "complete"

	// EventError signals an aborted run.
	EventError EventType = "error"

	// EventDebugStatus reports debug log capture toggles.
	EventDebugStatus EventType = "debug_status"
)

// Event is one progress update. Current never exceeds Total except for the
// initial {0, 0} starting signal. Record and Index are set only on
// EventRecordEnriched.
type Event struct {
	Type    EventType       `json:"type"`
	Message string          `json:"message"`
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Record  *discogs.Record `json:"record,omitempty"`
	Index   int             `json:"index,omitempty"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine and should hand slow work off to their own channel.
type Handler func(Event)

type subscriber struct {
	id      int
	handler Handler
}

// Bus is a process-wide publish point. The zero value is not usable; use
// NewBus.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

// NewBus creates an empty progress bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers event to every current subscriber, in subscription
// order. Events published before a subscriber attaches are not replayed.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}

// Subscribe attaches a handler and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of attached subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
