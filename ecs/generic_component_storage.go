package ecs

import (
	"iter"
	"reflect"
)

// ComponentRegistry manages component type registration for a Manager.
// Each Manager owns a registry, so several independent worlds can coexist
// without sharing arenas.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a component type with the given registry.
// Registration is required before a type can be used through the untyped
// Entity.Add; the generic AddComponent registers on first use.
// Registering the same type twice is a no-op.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	if _, ok := r.factories[t]; ok {
		return
	}
	r.factories[t] = func() iComponentStorage {
		return &genericComponentStorage[T]{}
	}
}

// Registered reports whether the component type has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is the arena for one component type.
// Components live in fixed-size blocks that are never moved, so pointers
// handed out by Get stay valid until the slot is deleted or the storage is
// compacted.
type genericComponentStorage[T any] struct {
	blocks    []*[genericBlockSize]T
	filled    []*[genericBlockSize]bool
	freeSlots []int
	nextIndex int
	count     int
}

func (cs *genericComponentStorage[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func asComponent[T any](item any) (T, bool) {
	if ptr, ok := item.(*T); ok && ptr != nil {
		return *ptr, true
	}
	val, ok := item.(T)
	return val, ok
}

// Append adds a component to storage and returns its index.
func (cs *genericComponentStorage[T]) Append(item any) int {
	concreteItem, ok := asComponent[T](item)
	if !ok {
		return -1 // Invalid type
	}
	return cs.push(concreteItem)
}

func (cs *genericComponentStorage[T]) push(item T) int {
	var index int
	if len(cs.freeSlots) > 0 {
		index = cs.freeSlots[len(cs.freeSlots)-1]
		cs.freeSlots = cs.freeSlots[:len(cs.freeSlots)-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
			cs.filled = append(cs.filled, new([genericBlockSize]bool))
		}
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	cs.blocks[blockIdx][slotIdx] = item
	cs.filled[blockIdx][slotIdx] = true
	cs.count++
	return index
}

// Set overwrites the component stored at index.
func (cs *genericComponentStorage[T]) Set(index int, item any) bool {
	concreteItem, ok := asComponent[T](item)
	if !ok {
		return false
	}
	ptr := cs.at(index)
	if ptr == nil {
		return false
	}
	*ptr = concreteItem
	return true
}

// at returns a typed pointer to the component at index, or nil.
func (cs *genericComponentStorage[T]) at(index int) *T {
	if !cs.Has(index) {
		return nil
	}
	return &cs.blocks[index/genericBlockSize][index%genericBlockSize]
}

// Get returns a pointer to the component at the given index.
func (cs *genericComponentStorage[T]) Get(index int) any {
	ptr := cs.at(index)
	if ptr == nil {
		return nil
	}
	return ptr
}

// Delete marks a component slot as empty.
func (cs *genericComponentStorage[T]) Delete(index int) {
	if !cs.Has(index) {
		return
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	cs.filled[blockIdx][slotIdx] = false
	var zero T
	cs.blocks[blockIdx][slotIdx] = zero // Zero out the value
	cs.freeSlots = append(cs.freeSlots, index)
	cs.count--
}

// Has checks if a component exists at the given index.
func (cs *genericComponentStorage[T]) Has(index int) bool {
	if index < 0 || index >= cs.nextIndex {
		return false
	}
	return cs.filled[index/genericBlockSize][index%genericBlockSize]
}

// Len returns the number of live components.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.count
}

// Compact reorganizes component storage to remove empty slots.
// The returned map translates old indices into new ones.
func (cs *genericComponentStorage[T]) Compact() map[int]int {
	indexMap := make(map[int]int, cs.count)

	if cs.count == 0 {
		cs.blocks = nil
		cs.filled = nil
		cs.freeSlots = nil
		cs.nextIndex = 0
		return indexMap
	}

	numNewBlocks := (cs.count + genericBlockSize - 1) / genericBlockSize
	newBlocks := make([]*[genericBlockSize]T, numNewBlocks)
	newFilled := make([]*[genericBlockSize]bool, numNewBlocks)
	for i := range newBlocks {
		newBlocks[i] = new([genericBlockSize]T)
		newFilled[i] = new([genericBlockSize]bool)
	}

	writePos := 0
	for readIdx := range cs.Iter() {
		indexMap[readIdx] = writePos

		writeBlockIdx := writePos / genericBlockSize
		writeSlotIdx := writePos % genericBlockSize

		newBlocks[writeBlockIdx][writeSlotIdx] = cs.blocks[readIdx/genericBlockSize][readIdx%genericBlockSize]
		newFilled[writeBlockIdx][writeSlotIdx] = true

		writePos++
	}

	cs.blocks = newBlocks
	cs.filled = newFilled
	cs.freeSlots = nil
	cs.nextIndex = writePos

	return indexMap
}

func (cs *genericComponentStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			if cs.filled[i/genericBlockSize][i%genericBlockSize] {
				if !yield(i) {
					return
				}
			}
		}
	}
}
