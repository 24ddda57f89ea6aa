package ecs

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// bucket is the set of entities carrying one component type, keyed by
// entity sequence number.
type bucket = intmap.Map[uint64, *Entity]

// Manager owns every entity and system of a world, and the reverse index
// from component type to the entities carrying it.
//
// Structural changes (creating or destroying entities, adding or removing
// systems) are queued and applied at the next flush, so an update in
// progress never observes a half-modified collection. A Manager is not safe
// for concurrent use; it is driven from a single update loop.
type Manager struct {
	registry *ComponentRegistry
	storages map[reflect.Type]iComponentStorage

	entities []*Entity
	byID     map[uuid.UUID]*Entity
	index    map[reflect.Type]*bucket
	nextSeq  uint64
	version  uint64

	pending *Commands

	systems []*systemEntry
	frame   uint64

	// busy is set while Update or Flush runs; nested flushes are ignored.
	busy bool

	events     *eventBus
	singletons map[reflect.Type]*Entity

	log *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry makes the manager use a pre-populated component registry.
func WithRegistry(registry *ComponentRegistry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// WithLogger sets the logger used for registration and flush diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry:   NewComponentRegistry(),
		storages:   make(map[reflect.Type]iComponentStorage),
		byID:       make(map[uuid.UUID]*Entity),
		index:      make(map[reflect.Type]*bucket),
		pending:    newCommands(),
		events:     newEventBus(),
		singletons: make(map[reflect.Type]*Entity),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the manager's component registry.
func (m *Manager) Registry() *ComponentRegistry {
	return m.registry
}

// CreateEntity allocates a new entity owned by this manager. The entity can
// be given components immediately but is not visible to queries until the
// next flush.
func (m *Manager) CreateEntity() *Entity {
	m.nextSeq++
	e := newEntity(m, m.nextSeq)
	m.pending.entityAdds = append(m.pending.entityAdds, e)
	return e
}

// Spawn creates an entity carrying the given components. Component types
// must be registered with the manager's registry.
func (m *Manager) Spawn(components ...any) (*Entity, error) {
	e := m.CreateEntity()
	for _, comp := range components {
		if err := e.Add(comp); err != nil {
			_ = m.DestroyEntity(e)
			return nil, fmt.Errorf("spawn entity: %w", err)
		}
	}
	return e, nil
}

// DestroyEntity marks e destroyed and queues its removal. The entity keeps
// answering queries until the next flush. Destroying an entity twice is a
// no-op.
func (m *Manager) DestroyEntity(e *Entity) error {
	if e == nil {
		return nil
	}
	if e.manager != m {
		if e.manager == nil && e.destroyed {
			return nil
		}
		m.log.Warn("rejected destroy of foreign entity", zap.Stringer("entity", e.ID))
		return ErrForeignEntity
	}
	if e.destroyed {
		return nil
	}
	e.destroyed = true
	m.pending.entityRemoves = append(m.pending.entityRemoves, e)
	return nil
}

// GetEntityByID looks up a live entity by identity.
func (m *Manager) GetEntityByID(id uuid.UUID) (*Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// Entities returns every live entity in creation order.
func (m *Manager) Entities() []*Entity {
	return slices.Clone(m.entities)
}

// EntityCount returns the number of live entities.
func (m *Manager) EntityCount() int {
	return len(m.entities)
}

// GetEntitiesWithComponents returns the live entities carrying every one of
// the given component types, in creation order. With no types it returns
// every live entity. A type no entity ever carried yields an empty result.
func (m *Manager) GetEntitiesWithComponents(types ...reflect.Type) []*Entity {
	if len(types) == 0 {
		return m.Entities()
	}

	buckets := make([]*bucket, 0, len(types))
	for _, t := range normalizeTypes(types) {
		b, ok := m.index[t]
		if !ok {
			return nil
		}
		buckets = append(buckets, b)
	}

	// Walk the smallest bucket and probe the others.
	slices.SortFunc(buckets, func(a, b *bucket) int {
		return cmp.Compare(a.Len(), b.Len())
	})

	var result []*Entity
	buckets[0].ForEach(func(seq uint64, e *Entity) bool {
		for _, other := range buckets[1:] {
			if _, ok := other.Get(seq); !ok {
				return true
			}
		}
		result = append(result, e)
		return true
	})

	slices.SortFunc(result, func(a, b *Entity) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return result
}

// Interesting narrows a type query with the system's IsInterestedIn
// predicate, when it has one.
func (m *Manager) Interesting(s System, types ...reflect.Type) []*Entity {
	entities := m.GetEntitiesWithComponents(types...)
	filter, ok := s.(InterestFilter)
	if !ok {
		return entities
	}
	return slices.DeleteFunc(entities, func(e *Entity) bool {
		return !filter.IsInterestedIn(e)
	})
}

// With returns the live entities carrying a component of type A.
func With[A any](m *Manager) []*Entity {
	return m.GetEntitiesWithComponents(reflect.TypeFor[A]())
}

// With2 returns the live entities carrying components A and B.
func With2[A, B any](m *Manager) []*Entity {
	return m.GetEntitiesWithComponents(reflect.TypeFor[A](), reflect.TypeFor[B]())
}

// With3 returns the live entities carrying components A, B and C.
func With3[A, B, C any](m *Manager) []*Entity {
	return m.GetEntitiesWithComponents(reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())
}

// onComponentAdded indexes a component added to a live entity. Entities
// still waiting in the add queue are indexed in bulk when flushed.
func (m *Manager) onComponentAdded(e *Entity, t reflect.Type) {
	if !e.live {
		return
	}
	m.indexEntity(e, t)
	m.events.queue(ComponentAdded{Entity: e, Type: t})
}

// onComponentRemoved prunes the reverse index for a live entity.
func (m *Manager) onComponentRemoved(e *Entity, t reflect.Type) {
	if !e.live {
		return
	}
	if b, ok := m.index[t]; ok {
		b.Del(e.seq)
	}
	m.version++
	m.events.queue(ComponentRemoved{Entity: e, Type: t})
}

func (m *Manager) indexEntity(e *Entity, t reflect.Type) {
	b, ok := m.index[t]
	if !ok {
		b = intmap.New[uint64, *Entity](64)
		m.index[t] = b
	}
	b.Put(e.seq, e)
	m.version++
}

// storageFor returns the arena for a registered type, creating it on first use.
func (m *Manager) storageFor(t reflect.Type) (iComponentStorage, error) {
	if store, ok := m.storages[t]; ok {
		return store, nil
	}
	factory := m.registry.getFactory(t)
	if factory == nil {
		m.log.Warn("component type not registered", zap.Stringer("type", t))
		return nil, fmt.Errorf("%w: %s", ErrComponentNotRegistered, t)
	}
	store := factory()
	m.storages[t] = store
	return store, nil
}

// storageOf returns the typed arena for T, registering T if needed.
func storageOf[T any](m *Manager) *genericComponentStorage[T] {
	t := reflect.TypeFor[T]()
	if store, ok := m.storages[t]; ok {
		return store.(*genericComponentStorage[T])
	}
	RegisterComponent[T](m.registry)
	store := m.registry.getFactory(t)().(*genericComponentStorage[T])
	m.storages[t] = store
	return store
}

// Compact repacks every component arena and rewrites entity slots. Pointers
// previously returned by GetComponent are invalidated; call it between frames.
func (m *Manager) Compact() {
	owned := make([]*Entity, 0, len(m.entities)+len(m.pending.entityAdds))
	owned = append(owned, m.entities...)
	owned = append(owned, m.pending.entityAdds...)

	m.version++
	for t, store := range m.storages {
		indexMap := store.Compact()
		for _, e := range owned {
			if slot, ok := e.slots[t]; ok {
				e.slots[t] = indexMap[slot]
			}
		}
	}
}
