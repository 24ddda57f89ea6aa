package ecs

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Entity is a game object: a stable identity plus at most one component per
// type. Entities only exist through Manager.CreateEntity.
//
// Component values live in the manager's per-type arenas; the entity keeps the
// slot index of each of its components.
type Entity struct {
	ID uuid.UUID

	seq       uint64
	manager   *Manager
	slots     map[reflect.Type]int
	live      bool
	destroyed bool
}

func newEntity(m *Manager, seq uint64) *Entity {
	return &Entity{
		ID:      uuid.New(),
		seq:     seq,
		manager: m,
		slots:   make(map[reflect.Type]int),
	}
}

// Manager returns the owning manager, or nil once the entity has been
// physically removed.
func (e *Entity) Manager() *Manager {
	return e.manager
}

// Alive reports whether the entity is visible to queries and not destroyed.
func (e *Entity) Alive() bool {
	return e.manager != nil && e.live && !e.destroyed
}

// Destroyed reports whether the entity has been marked for destruction.
func (e *Entity) Destroyed() bool {
	return e.destroyed
}

// Destroy marks the entity destroyed and queues it for removal from its
// manager. The entity keeps its components until the next flush.
func (e *Entity) Destroy() {
	if e.manager == nil {
		e.destroyed = true
		return
	}
	// Cannot fail: the entity is always owned by e.manager.
	_ = e.manager.DestroyEntity(e)
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%s)", e.ID)
}

// Add stores component under its type, replacing any previous value of the
// same type. A pointer is dereferenced and its value is stored. The type must
// be registered with the manager's ComponentRegistry.
func (e *Entity) Add(component any) error {
	t, err := componentTypeOf(component)
	if err != nil {
		return err
	}
	if e.destroyed || e.manager == nil {
		return ErrEntityDestroyed
	}

	store, err := e.manager.storageFor(t)
	if err != nil {
		return err
	}

	if slot, ok := e.slots[t]; ok {
		store.Set(slot, component)
	} else {
		e.slots[t] = store.Append(component)
	}

	e.manager.onComponentAdded(e, t)
	return nil
}

// Get returns a pointer to the component of the given type.
func (e *Entity) Get(t reflect.Type) (any, bool) {
	if e.manager == nil || t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	slot, ok := e.slots[t]
	if !ok {
		return nil, false
	}
	store, ok := e.manager.storages[t]
	if !ok {
		return nil, false
	}
	comp := store.Get(slot)
	return comp, comp != nil
}

// Has checks if the entity carries a component of the given type.
func (e *Entity) Has(t reflect.Type) bool {
	_, ok := e.Get(t)
	return ok
}

// Remove deletes the component of the given type and reports whether
// anything was removed. Destroyed entities are not edited.
func (e *Entity) Remove(t reflect.Type) bool {
	if e.destroyed || e.manager == nil || t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	slot, ok := e.slots[t]
	if !ok {
		return false
	}

	if store, ok := e.manager.storages[t]; ok {
		store.Delete(slot)
	}
	delete(e.slots, t)

	e.manager.onComponentRemoved(e, t)
	return true
}

// Types returns the component types carried by the entity, sorted by name.
func (e *Entity) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(e.slots))
	for t := range e.slots {
		types = append(types, t)
	}
	return sortedTypes(types)
}

// Components returns pointers to every component carried by the entity,
// in the order of Types.
func (e *Entity) Components() []any {
	types := e.Types()
	components := make([]any, 0, len(types))
	for _, t := range types {
		if comp, ok := e.Get(t); ok {
			components = append(components, comp)
		}
	}
	return components
}

// release frees the entity's arena slots and detaches it from its manager.
func (e *Entity) release() {
	if e.manager != nil {
		for t, slot := range e.slots {
			if store, ok := e.manager.storages[t]; ok {
				store.Delete(slot)
			}
		}
	}
	clear(e.slots)
	e.manager = nil
	e.live = false
}

// AddComponent stores value on the entity, replacing any previous value of
// type T. The type is registered with the manager on first use.
func AddComponent[T any](e *Entity, value T) error {
	t := reflect.TypeFor[T]()
	if err := validateComponentType(t); err != nil {
		return err
	}
	if e.destroyed || e.manager == nil {
		return ErrEntityDestroyed
	}

	store := storageOf[T](e.manager)
	if slot, ok := e.slots[t]; ok {
		*store.at(slot) = value
	} else {
		e.slots[t] = store.push(value)
	}

	e.manager.onComponentAdded(e, t)
	return nil
}

// GetComponent returns a pointer to the entity's component of type T.
// The pointer stays valid until the component is removed, the entity is
// removed by a flush, or the manager is compacted.
func GetComponent[T any](e *Entity) (*T, bool) {
	if e.manager == nil {
		return nil, false
	}
	t := reflect.TypeFor[T]()
	slot, ok := e.slots[t]
	if !ok {
		return nil, false
	}
	store, ok := e.manager.storages[t].(*genericComponentStorage[T])
	if !ok {
		return nil, false
	}
	ptr := store.at(slot)
	return ptr, ptr != nil
}

// HasComponent checks if the entity carries a component of type T.
func HasComponent[T any](e *Entity) bool {
	_, ok := GetComponent[T](e)
	return ok
}

// RemoveComponent deletes the entity's component of type T and reports
// whether anything was removed.
func RemoveComponent[T any](e *Entity) bool {
	return e.Remove(reflect.TypeFor[T]())
}

// ReadComponent returns the component of type T or nil. It is shorthand for
// systems that already filtered entities by type.
func ReadComponent[T any](e *Entity) *T {
	ptr, _ := GetComponent[T](e)
	return ptr
}
