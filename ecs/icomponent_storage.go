package ecs

import (
	"iter"
	"reflect"
)

// iComponentStorage is an interface for a type-erased component storage.
type iComponentStorage interface {
	Type() reflect.Type
	Append(item any) int
	Set(index int, item any) bool
	Delete(index int)
	Get(index int) any
	Has(index int) bool
	Len() int
	Compact() map[int]int
	Iter() iter.Seq[int]
}
