package ecs

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotPosition struct {
	X, Y float32
}

func TestGenericStorageAppendGet(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}

	a := cs.Append(slotPosition{X: 1, Y: 2})
	b := cs.Append(&slotPosition{X: 3, Y: 4})

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, cs.Len())

	got := cs.Get(b).(*slotPosition)
	assert.Equal(t, slotPosition{X: 3, Y: 4}, *got)

	assert.Equal(t, -1, cs.Append("not a position"))
	assert.Nil(t, cs.Get(5))
	assert.Nil(t, cs.Get(-1))
}

func TestGenericStorageReusesFreeSlots(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}

	cs.Append(slotPosition{X: 1})
	middle := cs.Append(slotPosition{X: 2})
	cs.Append(slotPosition{X: 3})

	cs.Delete(middle)
	assert.False(t, cs.Has(middle))
	assert.Equal(t, 2, cs.Len())

	// Deleting twice must not free the slot twice
	cs.Delete(middle)
	assert.Equal(t, 2, cs.Len())

	reused := cs.Append(slotPosition{X: 9})
	assert.Equal(t, middle, reused)
	assert.Equal(t, float32(9), cs.at(reused).X)
}

func TestGenericStoragePointersSurviveGrowth(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}

	first := cs.push(slotPosition{X: 1})
	ptr := cs.at(first)

	for i := 0; i < genericBlockSize*4; i++ {
		cs.push(slotPosition{X: float32(i)})
	}

	ptr.X = 42
	assert.Equal(t, float32(42), cs.at(first).X)
}

func TestGenericStorageSet(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}
	idx := cs.push(slotPosition{X: 1})

	assert.True(t, cs.Set(idx, slotPosition{X: 7}))
	assert.Equal(t, float32(7), cs.at(idx).X)

	assert.False(t, cs.Set(idx+1, slotPosition{X: 8}))
	assert.False(t, cs.Set(idx, 12))
}

func TestGenericStorageCompact(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}
	for i := 0; i < 10; i++ {
		cs.push(slotPosition{X: float32(i)})
	}
	for _, i := range []int{0, 3, 4, 9} {
		cs.Delete(i)
	}

	indexMap := cs.Compact()
	require.Len(t, indexMap, 6)
	assert.Equal(t, 6, cs.Len())

	for oldIdx, newIdx := range indexMap {
		assert.Equal(t, float32(oldIdx), cs.at(newIdx).X)
	}

	var seen []int
	for i := range cs.Iter() {
		seen = append(seen, i)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seen)
}

func TestGenericStorageCompactEmpty(t *testing.T) {
	cs := &genericComponentStorage[slotPosition]{}
	cs.Delete(cs.push(slotPosition{}))

	assert.Empty(t, cs.Compact())
	assert.Equal(t, 0, cs.Len())
	assert.Equal(t, 0, cs.push(slotPosition{X: 1}))
}

func TestComponentRegistry(t *testing.T) {
	r := NewComponentRegistry()
	typ := reflect.TypeFor[slotPosition]()

	assert.False(t, r.Registered(typ))
	assert.Nil(t, r.getFactory(typ))

	RegisterComponent[slotPosition](r)
	RegisterComponent[slotPosition](r)

	require.True(t, r.Registered(typ))
	store := r.getFactory(typ)()
	assert.Equal(t, typ, store.Type())
}

func TestComponentTypeOf(t *testing.T) {
	typ, err := componentTypeOf(&slotPosition{})
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[slotPosition](), typ)

	_, err = componentTypeOf(nil)
	assert.ErrorIs(t, err, ErrInvalidComponent)

	var nilPtr *slotPosition
	_, err = componentTypeOf(nilPtr)
	assert.ErrorIs(t, err, ErrInvalidComponent)

	_, err = componentTypeOf(map[string]int{})
	assert.ErrorIs(t, err, ErrInvalidComponent)

	_, err = componentTypeOf(func() {})
	assert.ErrorIs(t, err, ErrInvalidComponent)
}
