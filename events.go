package navigator

import (
	"sync"

	"github.com/mwantia/navigator/backend"
	"github.com/mwantia/navigator/data"
)

// EventType identifies a state change of a session.
type EventType int

const (
	EventLocationChanged EventType = iota
	EventEntriesReplaced
	EventStatusChanged
	EventEntryRenamed
	EventSelectionChanged
	EventBackendChanged
	EventLoginRequired
)

func (t EventType) String() string {
	switch t {
	case EventLocationChanged:
		return "location-changed"
	case EventEntriesReplaced:
		return "entries-replaced"
	case EventStatusChanged:
		return "status-changed"
	case EventEntryRenamed:
		return "entry-renamed"
	case EventSelectionChanged:
		return "selection-changed"
	case EventBackendChanged:
		return "backend-changed"
	case EventLoginRequired:
		return "login-required"
	default:
		return "unknown"
	}
}

// Event describes a single state change. Only the fields relevant to
// Type are set.
type Event struct {
	Type EventType

	Location string
	Previous string

	Entries []*data.Entry

	// Entry is shared with the session. Observers on other goroutines read
	// the new name from NewName instead of Entry.Name.
	Entry   *data.Entry
	OldName string
	NewName string

	Status    data.Status
	Kind      backend.Kind
	Server    string
	Selection []*data.Entry
}

type subscription struct {
	id      uint64
	handler func(Event)
}

// eventBus delivers events synchronously in subscription order.
type eventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

func (b *eventBus) subscribe(handler func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *eventBus) publish(events ...Event) {
	if len(events) == 0 {
		return
	}

	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, event := range events {
		for _, sub := range subs {
			sub.handler(event)
		}
	}
}

func (b *eventBus) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = nil
}
