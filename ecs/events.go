package ecs

import "reflect"

// EntityAdded is delivered when a created entity becomes visible to queries.
type EntityAdded struct {
	Entity *Entity
}

// EntityRemoved is delivered when a destroyed entity leaves the manager.
// Its components are still readable while observers run.
type EntityRemoved struct {
	Entity *Entity
}

// ComponentAdded is delivered when a live entity gains or replaces a component.
type ComponentAdded struct {
	Entity *Entity
	Type   reflect.Type
}

// ComponentRemoved is delivered when a live entity loses a component.
type ComponentRemoved struct {
	Entity *Entity
	Type   reflect.Type
}

// SystemAdded is delivered when a queued system is registered.
type SystemAdded struct {
	System System
	Name   string
}

// SystemRemoved is delivered when a system is unregistered.
type SystemRemoved struct {
	System System
	Name   string
}

type eventHandler struct {
	id uint64
	fn func(any)
}

// eventBus queues notifications as they happen and delivers them
// synchronously, in order, when the manager reaches a flush point.
type eventBus struct {
	handlers    map[reflect.Type][]eventHandler
	pending     []any
	nextID      uint64
	dispatching bool
}

func newEventBus() *eventBus {
	return &eventBus{
		handlers: make(map[reflect.Type][]eventHandler),
	}
}

// Subscribe registers fn for every event of type T raised by the manager.
// Handlers run in subscription order. A handler receives every event
// delivered after it subscribed, including events queued earlier in the
// same frame. The returned function unsubscribes.
func Subscribe[T any](m *Manager, fn func(T)) (unsubscribe func()) {
	bus := m.events
	t := reflect.TypeFor[T]()

	bus.nextID++
	id := bus.nextID
	bus.handlers[t] = append(bus.handlers[t], eventHandler{
		id: id,
		fn: func(ev any) { fn(ev.(T)) },
	})

	return func() {
		handlers := bus.handlers[t]
		for i, h := range handlers {
			if h.id == id {
				bus.handlers[t] = append(handlers[:i:i], handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish queues a custom event; it is delivered at the next flush point
// along with the manager's own notifications.
func Publish[T any](m *Manager, event T) {
	m.events.queue(event)
}

func (b *eventBus) queue(ev any) {
	b.pending = append(b.pending, ev)
}

// dispatch delivers queued events in order, each exactly once. Events raised
// by handlers are appended and delivered in the same pass; a nested call
// leaves them to the outer loop.
func (b *eventBus) dispatch() {
	if b.dispatching {
		return
	}
	b.dispatching = true
	defer func() { b.dispatching = false }()

	for i := 0; i < len(b.pending); i++ {
		ev := b.pending[i]
		for _, h := range b.handlers[reflect.TypeOf(ev)] {
			h.fn(ev)
		}
	}
	clear(b.pending)
	b.pending = b.pending[:0]
}
