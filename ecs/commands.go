package ecs

import (
	"slices"

	"go.uber.org/zap"
)

// Commands buffers the structural changes requested between two flush
// points. The Manager applies them at the start and the end of every
// frame, so systems never see a collection change while iterating it.
type Commands struct {
	entityAdds    []*Entity
	entityRemoves []*Entity
	systemAdds    []System
	systemRemoves []System
	defers        []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer queues a function to run after the end-of-frame flush.
func (c *Commands) Defer(fn func()) {
	if fn != nil {
		c.defers = append(c.defers, fn)
	}
}

// PendingEntities returns the number of queued entity additions and removals.
func (c *Commands) PendingEntities() (adds, removes int) {
	return len(c.entityAdds), len(c.entityRemoves)
}

// Flush applies every queued entity and system change and delivers the
// resulting notifications. Update calls it implicitly; setup code and tests
// call it to make freshly created entities visible.
//
// Flush is a no-op when called from a system, an event handler or a
// deferred function: queued changes wait for the manager's next flush point.
func (m *Manager) Flush() {
	if m.busy {
		m.log.Debug("ignored nested flush", zap.Uint64("frame", m.frame))
		return
	}
	m.busy = true
	defer func() { m.busy = false }()

	m.flushEntities()
	m.flushSystems()
	m.runDefers()
}

// flushEntities applies queued entity additions then removals and
// dispatches the notifications they produced. Removed entities keep their
// components until their EntityRemoved observers have run.
func (m *Manager) flushEntities() {
	m.flushEntityAdds()
	removed := m.flushEntityRemoves()

	m.events.dispatch()

	for _, e := range removed {
		e.release()
	}
}

func (m *Manager) flushEntityAdds() {
	if len(m.pending.entityAdds) == 0 {
		return
	}

	adds := m.pending.entityAdds
	m.pending.entityAdds = nil

	added := 0
	for _, e := range adds {
		// Created and destroyed before this flush: never becomes visible.
		if e.destroyed || e.manager != m {
			continue
		}

		e.live = true
		m.entities = append(m.entities, e)
		m.byID[e.ID] = e

		// Notifications for components attached before the entity was live
		// were dropped; catch the index up in bulk.
		for t := range e.slots {
			m.indexEntity(e, t)
		}

		m.version++
		m.events.queue(EntityAdded{Entity: e})
		added++
	}

	if added > 0 {
		m.log.Debug("flushed entity additions", zap.Int("added", added), zap.Int("live", len(m.entities)))
	}
}

func (m *Manager) flushEntityRemoves() []*Entity {
	if len(m.pending.entityRemoves) == 0 {
		return nil
	}

	removes := m.pending.entityRemoves
	m.pending.entityRemoves = nil

	gone := make(map[*Entity]struct{}, len(removes))
	for _, e := range removes {
		gone[e] = struct{}{}
	}
	m.entities = slices.DeleteFunc(m.entities, func(e *Entity) bool {
		_, ok := gone[e]
		return ok
	})

	visible := 0
	for _, e := range removes {
		if !e.live {
			continue
		}
		delete(m.byID, e.ID)

		// Scan every bucket: the entity's current types may not cover
		// every bucket it was once placed in.
		for _, b := range m.index {
			b.Del(e.seq)
		}
		m.version++

		m.events.queue(EntityRemoved{Entity: e})
		visible++
	}

	if visible > 0 {
		m.log.Debug("flushed entity removals", zap.Int("removed", visible), zap.Int("live", len(m.entities)))
	}
	return removes
}

func (m *Manager) runDefers() {
	for len(m.pending.defers) > 0 {
		defers := m.pending.defers
		m.pending.defers = nil
		for _, fn := range defers {
			fn()
		}
	}
	m.events.dispatch()
}
