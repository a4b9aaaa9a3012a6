// internal/dial/bus.go
//
// Pointer event plumbing for the click wheel.
// The wheel only listens for move/up/cancel events while a drag is in
// progress: it subscribes on pointer-down and releases the subscription on
// every exit path. Bus is the per-session event source the HTTP layer
// dispatches into.

package dial

import (
	"sort"
	"sync"
)

// Kind is the pointer device that produced an event.
type Kind string

const (
	KindMouse Kind = "mouse"
	KindTouch Kind = "touch"
)

// EventType identifies a pointer transition.
type EventType string

const (
	EventDown   EventType = "down"
	EventMove   EventType = "move"
	EventUp     EventType = "up"
	EventCancel EventType = "cancel"
)

// Pointer is a screen-space position reported by a mouse or touch device.
type Pointer struct {
	Kind Kind    `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Event is a single pointer transition.
type Event struct {
	Type    EventType `json:"type"`
	Pointer Pointer   `json:"pointer"`
}

// Listener receives dispatched events.
type Listener func(Event)

// Source hands out subscriptions to pointer events.
// The returned function removes the listener; calling it more than once is a no-op.
type Source interface {
	Subscribe(l Listener) (unsubscribe func())
}

// Bus is an in-process Source. Listeners are invoked in subscription order.
type Bus struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers l and returns its release function.
// A nil Bus accepts no listeners.
func (b *Bus) Subscribe(l Listener) func() {
	if b == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Dispatch delivers e to every current listener.
// The listener set is captured before delivery, so a listener may
// unsubscribe itself while handling the event.
func (b *Bus) Dispatch(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ls := make([]Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, b.listeners[id])
	}
	b.mu.Unlock()

	for _, l := range ls {
		l(e)
	}
}

// Listeners reports how many subscriptions are live.
func (b *Bus) Listeners() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
