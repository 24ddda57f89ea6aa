package ecs_test

import (
	"testing"

	"github.com/plus3/craftworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type WorldClock struct {
	Elapsed   float64
	DayLength float64
}

func TestSingleton(t *testing.T) {
	m := newTestManager()

	clock := ecs.NewSingleton(m, WorldClock{DayLength: 60})
	require.True(t, clock.Exists())
	assert.Equal(t, 60.0, clock.Get().DayLength)

	clock.Get().Elapsed = 12

	// A second accessor shares the same value and ignores its initializer
	again := ecs.NewSingleton(m, WorldClock{DayLength: 1})
	assert.Same(t, clock.Entity(), again.Entity())
	assert.Equal(t, 12.0, again.Get().Elapsed)
	assert.Equal(t, 60.0, again.Get().DayLength)

	m.Flush()
	assert.Equal(t, []*ecs.Entity{clock.Entity()}, ecs.With[WorldClock](m))
}

func TestSingletonRecreatedAfterDestroy(t *testing.T) {
	m := newTestManager()

	clock := ecs.NewSingleton[WorldClock](m)
	m.Flush()
	clock.Entity().Destroy()
	m.Flush()

	assert.False(t, clock.Exists())
	assert.Nil(t, clock.Get())

	fresh := ecs.NewSingleton(m, WorldClock{DayLength: 30})
	assert.NotSame(t, clock.Entity(), fresh.Entity())
	assert.Equal(t, 30.0, fresh.Get().DayLength)
}
