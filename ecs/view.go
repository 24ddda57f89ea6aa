package ecs

import (
	"fmt"
	"iter"
	"reflect"
)

var entityPtrType = reflect.TypeFor[*Entity]()

// View represents a query for entities with a specific combination of components
// The type T should be a struct with embedded pointer fields for each component type
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
// A field of type *ecs.Entity receives the entity itself
type View[T any] struct {
	manager     *Manager
	types       []reflect.Type
	optional    []bool
	fieldIndex  []int
	entityField int
}

// NewView creates a new view for the given struct type
// Embedded fields are always required
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
func NewView[T any](m *Manager) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{
		manager:     m,
		types:       make([]reflect.Type, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldIndex:  make([]int, 0, structType.NumField()),
		entityField: -1,
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if !field.IsExported() {
			panic("View struct field " + field.Name + " must be exported")
		}

		if fieldType == entityPtrType {
			v.entityField = i
			continue
		}

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		// Parse struct tag to check if component is optional
		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		v.types = append(v.types, fieldType.Elem())
		v.optional = append(v.optional, isOptional)
		v.fieldIndex = append(v.fieldIndex, i)
	}

	return v
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(e *Entity, ptr *T) bool {
	if e == nil || e.manager != v.manager {
		return false
	}

	result := reflect.ValueOf(ptr).Elem()

	for i, componentType := range v.types {
		field := result.Field(v.fieldIndex[i])

		component, ok := e.Get(componentType)
		if !ok {
			if !v.optional[i] {
				return false
			}
			field.SetZero()
			continue
		}
		field.Set(reflect.ValueOf(component))
	}

	if v.entityField >= 0 {
		result.Field(v.entityField).Set(reflect.ValueOf(e))
	}
	return true
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(e *Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// Iter returns an iterator over all live entities that have all the required
// components for this view, in creation order
func (v *View[T]) Iter() iter.Seq2[*Entity, T] {
	return func(yield func(*Entity, T) bool) {
		for _, e := range v.manager.GetEntitiesWithComponents(v.requiredTypes()...) {
			var result T
			if !v.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entities)
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with the components referenced by the view
// struct. Nil optional components are skipped.
func (v *View[T]) Spawn(data T) (*Entity, error) {
	value := reflect.ValueOf(data)

	components := make([]any, 0, len(v.types))
	for i := range v.types {
		field := value.Field(v.fieldIndex[i])
		if field.IsNil() {
			if !v.optional[i] {
				return nil, fmt.Errorf("%w: required %s is nil", ErrInvalidComponent, v.types[i])
			}
			continue
		}
		components = append(components, field.Interface())
	}

	return v.manager.Spawn(components...)
}

// requiredTypes returns a slice of only the required (non-optional) component types
func (v *View[T]) requiredTypes() []reflect.Type {
	required := make([]reflect.Type, 0, len(v.types))
	for i, typ := range v.types {
		if !v.optional[i] {
			required = append(required, typ)
		}
	}
	return required
}
