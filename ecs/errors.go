package ecs

import "errors"

var (
	// ErrForeignEntity is returned when an entity owned by another Manager is passed in.
	ErrForeignEntity = errors.New("ecs: entity is owned by a different manager")

	// ErrEntityDestroyed is returned when editing the components of a destroyed entity.
	ErrEntityDestroyed = errors.New("ecs: entity is destroyed")

	// ErrComponentNotRegistered is returned by the untyped component API for
	// types that were never registered with the manager's ComponentRegistry.
	ErrComponentNotRegistered = errors.New("ecs: component type not registered")

	// ErrInvalidComponent is returned for nil components and for types that
	// cannot be stored as values (pointers to pointers, maps, channels, funcs, interfaces).
	ErrInvalidComponent = errors.New("ecs: invalid component")

	ErrNilSystem           = errors.New("ecs: nil system")
	ErrSystemRegistered    = errors.New("ecs: system already registered")
	ErrSystemNotRegistered = errors.New("ecs: system not registered")
)
