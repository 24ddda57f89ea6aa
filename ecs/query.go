package ecs

import "iter"

// Query wraps a View and caches the matching entities until the manager's
// reverse index changes. Systems keep a Query across frames to avoid
// recomputing the bucket intersection every update.
type Query[T any] struct {
	view    *View[T]
	manager *Manager

	cachedEntities   []*Entity
	cachedComponents []T
	cachedVersion    uint64
	cacheValid       bool
}

// NewQuery creates a new Query over the given manager.
func NewQuery[T any](m *Manager) *Query[T] {
	return &Query[T]{
		view:    NewView[T](m),
		manager: m,
	}
}

// Execute rebuilds the entity and component caches if the index changed
// since the last call.
func (q *Query[T]) Execute() {
	if q.cacheValid && q.cachedVersion == q.manager.version {
		return
	}

	q.cachedEntities = q.cachedEntities[:0]
	clear(q.cachedComponents)
	q.cachedComponents = q.cachedComponents[:0]

	for e, item := range q.view.Iter() {
		q.cachedEntities = append(q.cachedEntities, e)
		q.cachedComponents = append(q.cachedComponents, item)
	}

	q.cachedVersion = q.manager.version
	q.cacheValid = true
}

// Len returns the number of matching entities.
func (q *Query[T]) Len() int {
	q.Execute()
	return len(q.cachedEntities)
}

// Iter returns an iterator over entities and component data.
func (q *Query[T]) Iter() iter.Seq2[*Entity, T] {
	q.Execute()

	return func(yield func(*Entity, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	q.Execute()

	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}
