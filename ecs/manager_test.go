package ecs_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/plus3/craftworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	positionType = reflect.TypeOf(Position{})
	velocityType = reflect.TypeOf(Velocity{})
	colliderType = reflect.TypeOf(Collider{})
)

func TestQueryIntersection(t *testing.T) {
	m := newTestManager()

	e := m.CreateEntity()
	require.NoError(t, ecs.AddComponent(e, Position{X: 0, Y: 0}))
	require.NoError(t, ecs.AddComponent(e, Velocity{DX: 1, DY: 0}))
	m.Flush()

	assert.Equal(t, []*ecs.Entity{e}, m.GetEntitiesWithComponents(positionType, velocityType))

	assert.True(t, ecs.RemoveComponent[Velocity](e))
	m.Flush()

	assert.Empty(t, m.GetEntitiesWithComponents(positionType, velocityType))
	assert.Equal(t, []*ecs.Entity{e}, m.GetEntitiesWithComponents(positionType))
}

func TestQueryIntersectionMixedEntities(t *testing.T) {
	m := newTestManager()

	both, err := m.Spawn(Position{}, Velocity{})
	require.NoError(t, err)
	onlyPos, err := m.Spawn(Position{})
	require.NoError(t, err)
	onlyVel, err := m.Spawn(Velocity{})
	require.NoError(t, err)
	m.Flush()

	assert.Equal(t, []*ecs.Entity{both, onlyPos}, ecs.With[Position](m))
	assert.Equal(t, []*ecs.Entity{both, onlyVel}, ecs.With[Velocity](m))
	assert.Equal(t, []*ecs.Entity{both}, ecs.With2[Velocity, Position](m))
	assert.Empty(t, ecs.With3[Position, Velocity, Collider](m))
}

func TestQueryWithoutTypesReturnsAllEntities(t *testing.T) {
	m := newTestManager()
	a := m.CreateEntity()
	b, err := m.Spawn(Position{})
	require.NoError(t, err)
	m.Flush()

	assert.Equal(t, []*ecs.Entity{a, b}, m.GetEntitiesWithComponents())
	assert.Equal(t, 2, m.EntityCount())
}

func TestQueryUnknownTypeIsEmpty(t *testing.T) {
	m := newTestManager()
	_, err := m.Spawn(Position{})
	require.NoError(t, err)
	m.Flush()

	assert.Empty(t, m.GetEntitiesWithComponents(reflect.TypeOf(Inventory{})))
	assert.Empty(t, m.GetEntitiesWithComponents(positionType, reflect.TypeOf(Inventory{})))
}

func TestQueryAcceptsPointerTypes(t *testing.T) {
	m := newTestManager()
	e, err := m.Spawn(Position{})
	require.NoError(t, err)
	m.Flush()

	assert.Equal(t, []*ecs.Entity{e}, m.GetEntitiesWithComponents(reflect.TypeOf(&Position{})))
}

func TestCreatedEntityInvisibleUntilFlush(t *testing.T) {
	m := newTestManager()
	e := m.CreateEntity()
	require.NoError(t, ecs.AddComponent(e, Collider{Radius: 1}))

	assert.Empty(t, m.GetEntitiesWithComponents(colliderType))
	assert.Empty(t, m.Entities())
	_, found := m.GetEntityByID(e.ID)
	assert.False(t, found)

	m.Flush()

	assert.Equal(t, []*ecs.Entity{e}, m.GetEntitiesWithComponents(colliderType))
	got, found := m.GetEntityByID(e.ID)
	require.True(t, found)
	assert.Same(t, e, got)
}

func TestComponentsAddedAfterFlushAreIndexed(t *testing.T) {
	m := newTestManager()
	e := m.CreateEntity()
	m.Flush()

	require.NoError(t, ecs.AddComponent(e, Collider{}))
	assert.Equal(t, []*ecs.Entity{e}, ecs.With[Collider](m))
}

func TestDestroyCollider(t *testing.T) {
	m := newTestManager()
	a, err := m.Spawn(Collider{Radius: 1})
	require.NoError(t, err)
	b, err := m.Spawn(Collider{Radius: 2})
	require.NoError(t, err)
	m.Flush()

	assert.ElementsMatch(t, []*ecs.Entity{a, b}, m.GetEntitiesWithComponents(colliderType))

	require.NoError(t, m.DestroyEntity(a))

	// Removal is only visible after the next flush
	assert.ElementsMatch(t, []*ecs.Entity{a, b}, m.GetEntitiesWithComponents(colliderType))

	m.Flush()
	assert.Equal(t, []*ecs.Entity{b}, m.GetEntitiesWithComponents(colliderType))
	_, found := m.GetEntityByID(a.ID)
	assert.False(t, found)
	assert.Equal(t, 1, m.EntityCount())
}

func TestDestroyBeforeFirstFlushIsNeverVisible(t *testing.T) {
	m := newTestManager()

	var events []string
	ecs.Subscribe(m, func(ev ecs.EntityAdded) { events = append(events, "added") })
	ecs.Subscribe(m, func(ev ecs.EntityRemoved) { events = append(events, "removed") })

	e := m.CreateEntity()
	require.NoError(t, ecs.AddComponent(e, Position{}))
	require.NoError(t, m.DestroyEntity(e))

	m.Flush()
	assert.Empty(t, ecs.With[Position](m))
	assert.Empty(t, m.Entities())
	assert.Nil(t, e.Manager())

	m.Update(1)
	assert.Empty(t, ecs.With[Position](m))
	assert.Empty(t, events)
}

func TestDestroyEntityTwice(t *testing.T) {
	m := newTestManager()
	e, err := m.Spawn(Position{})
	require.NoError(t, err)
	m.Flush()

	require.NoError(t, m.DestroyEntity(e))
	require.NoError(t, m.DestroyEntity(e))
	m.Flush()
	require.NoError(t, m.DestroyEntity(e))

	assert.Equal(t, 0, m.EntityCount())
}

func TestDestroyForeignEntity(t *testing.T) {
	m1 := newTestManager()
	m2 := newTestManager()

	e := m1.CreateEntity()
	m1.Flush()

	assert.ErrorIs(t, m2.DestroyEntity(e), ecs.ErrForeignEntity)
	assert.False(t, e.Destroyed())
	assert.Equal(t, 1, m1.EntityCount())
}

func TestRemovedEntityLeavesEveryBucket(t *testing.T) {
	m := newTestManager()
	e, err := m.Spawn(Position{}, Velocity{}, Collider{})
	require.NoError(t, err)
	other, err := m.Spawn(Position{}, Velocity{}, Collider{})
	require.NoError(t, err)
	m.Flush()

	require.NoError(t, m.DestroyEntity(e))
	m.Flush()

	for _, typ := range []reflect.Type{positionType, velocityType, colliderType} {
		assert.Equal(t, []*ecs.Entity{other}, m.GetEntitiesWithComponents(typ), typ.String())
	}

	stats := m.CollectStats()
	for _, b := range stats.Buckets {
		assert.Equal(t, 1, b.EntityCount, b.Type)
	}
}

func TestSpawnRejectsUnregisteredComponent(t *testing.T) {
	m := ecs.NewManager()

	e, err := m.Spawn(Position{})
	assert.ErrorIs(t, err, ecs.ErrComponentNotRegistered)
	assert.Nil(t, e)

	m.Flush()
	assert.Empty(t, m.Entities())
}

func TestGetEntityByIDUnknown(t *testing.T) {
	m := newTestManager()
	_, found := m.GetEntityByID(uuid.New())
	assert.False(t, found)
}

func TestCompactKeepsComponents(t *testing.T) {
	m := newTestManager()

	var keep []*ecs.Entity
	for i := 0; i < 100; i++ {
		e, err := m.Spawn(Position{X: float32(i)}, Health{Current: i})
		require.NoError(t, err)
		if i%3 == 0 {
			require.NoError(t, m.DestroyEntity(e))
		} else {
			keep = append(keep, e)
		}
	}
	m.Flush()

	m.Compact()

	require.Equal(t, keep, ecs.With2[Position, Health](m))
	for _, e := range keep {
		pos := ecs.ReadComponent[Position](e)
		hp := ecs.ReadComponent[Health](e)
		require.NotNil(t, pos)
		require.NotNil(t, hp)
		assert.Equal(t, float32(hp.Current), pos.X)
	}

	// Slots freed by compaction are reused without clobbering live data
	fresh, err := m.Spawn(Position{X: -1}, Health{Current: -1})
	require.NoError(t, err)
	m.Flush()
	assert.Equal(t, float32(-1), ecs.ReadComponent[Position](fresh).X)
	assert.Equal(t, float32(1), ecs.ReadComponent[Position](keep[0]).X)
}

func TestInteresting(t *testing.T) {
	m := newTestManager()
	_, err := m.Spawn(Position{}, Name{Value: "rock"})
	require.NoError(t, err)
	tree, err := m.Spawn(Position{}, Name{Value: "tree"})
	require.NoError(t, err)
	m.Flush()

	sys := &namedFilterSystem{want: "tree"}
	assert.Equal(t, []*ecs.Entity{tree}, m.Interesting(sys, positionType))

	plain := &countingSystem{}
	assert.Len(t, m.Interesting(plain, positionType), 2)
}

type namedFilterSystem struct {
	want string
}

func (s *namedFilterSystem) Update(frame *ecs.UpdateFrame) {}

func (s *namedFilterSystem) IsInterestedIn(e *ecs.Entity) bool {
	name, ok := ecs.GetComponent[Name](e)
	return ok && name.Value == s.want
}
