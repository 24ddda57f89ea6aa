package ecs

import "reflect"

// Singleton provides access to a single component instance that represents
// world-wide state, such as the game clock. The value is carried by a
// dedicated entity owned by the manager.
type Singleton[T any] struct {
	manager *Manager
	entity  *Entity
}

// NewSingleton returns the accessor for T, creating the carrier entity if the
// manager has none. If initializer is provided it is used for a newly
// created singleton; an existing value is left untouched.
func NewSingleton[T any](m *Manager, initializer ...T) *Singleton[T] {
	t := reflect.TypeFor[T]()

	if e, ok := m.singletons[t]; ok && e.manager == m && !e.destroyed {
		return &Singleton[T]{manager: m, entity: e}
	}

	var value T
	if len(initializer) > 0 {
		value = initializer[0]
	}

	e := m.CreateEntity()
	if err := AddComponent(e, value); err != nil {
		panic("cannot create singleton " + t.String() + ": " + err.Error())
	}
	m.singletons[t] = e

	return &Singleton[T]{manager: m, entity: e}
}

// Get returns a pointer to the singleton component.
// Returns nil if the carrier entity was destroyed or the component removed.
func (s *Singleton[T]) Get() *T {
	ptr, _ := GetComponent[T](s.entity)
	return ptr
}

// Exists returns true if the singleton component is still present
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}

// Entity returns the entity carrying the singleton.
func (s *Singleton[T]) Entity() *Entity {
	return s.entity
}
