package ecs

import (
	"fmt"
	"reflect"
	"sort"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// validateComponentType rejects types that are not plain values.
// Components can be structs or primitives (int, string, etc.) but not
// pointers, maps, channels, functions or interfaces.
func validateComponentType(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s is not a value type", ErrInvalidComponent, t)
	}
	return nil
}

// componentTypeOf returns the component type of a value. A pointer is
// dereferenced: adding &Position{} stores a Position.
func componentTypeOf(component any) (reflect.Type, error) {
	if component == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidComponent)
	}
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Ptr {
		if reflect.ValueOf(component).IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrInvalidComponent, t)
		}
		t = t.Elem()
	}
	if err := validateComponentType(t); err != nil {
		return nil, err
	}
	return t, nil
}

// normalizeTypes strips pointer types used as query keys, so that
// reflect.TypeOf(&Position{}) and reflect.TypeOf(Position{}) are equivalent.
func normalizeTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, len(types))
	for i, t := range types {
		if t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		out[i] = t
	}
	return out
}

func sortedTypes(types []reflect.Type) []reflect.Type {
	sort.Sort(byTypeName(types))
	return types
}
