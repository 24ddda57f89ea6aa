package main

import (
	"math"
	"math/rand"

	"github.com/plus3/craftworld/ecs"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Collider struct {
	Radius float64
}

// Lifetime counts down and destroys its entity at zero.
type Lifetime struct {
	Remaining float64
}

// Collisions is a singleton tally of overlapping pairs per frame.
type Collisions struct {
	LastFrame int
	Total     int64
}

func newRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Collider](registry)
	ecs.RegisterComponent[Lifetime](registry)
	return registry
}

type world struct {
	cfg WorldConfig
	rng *rand.Rand
}

func (w *world) spawn(m *ecs.Manager) error {
	components := []any{
		Position{X: w.rng.Float64() * w.cfg.ArenaSize, Y: w.rng.Float64() * w.cfg.ArenaSize},
	}
	if w.rng.Intn(4) != 0 {
		components = append(components, Velocity{DX: w.rng.NormFloat64() * 10, DY: w.rng.NormFloat64() * 10})
	}
	if w.rng.Intn(3) == 0 {
		components = append(components, Collider{Radius: 1 + w.rng.Float64()*4})
	}
	if w.rng.Intn(2) == 0 {
		span := w.cfg.MaxLifetime - w.cfg.MinLifetime
		components = append(components, Lifetime{Remaining: w.cfg.MinLifetime + w.rng.Float64()*span})
	}
	_, err := m.Spawn(components...)
	return err
}

type movementSystem struct {
	arena float64
	query *ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *movementSystem) Initialize(frame *ecs.UpdateFrame) {
	s.query = ecs.NewQuery[struct {
		*Position
		*Velocity
	}](frame.Manager)
}

func (s *movementSystem) Update(frame *ecs.UpdateFrame) {
	for item := range s.query.Values() {
		item.Position.X = wrap(item.Position.X+item.Velocity.DX*frame.DeltaTime, s.arena)
		item.Position.Y = wrap(item.Position.Y+item.Velocity.DY*frame.DeltaTime, s.arena)
	}
}

func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// collisionSystem counts overlapping colliders on a coarse grid.
type collisionSystem struct {
	cell  float64
	grid  map[[2]int][]*ecs.Entity
	tally *ecs.Singleton[Collisions]
}

func (s *collisionSystem) Initialize(frame *ecs.UpdateFrame) {
	s.grid = make(map[[2]int][]*ecs.Entity)
	s.tally = ecs.NewSingleton[Collisions](frame.Manager)
}

func (s *collisionSystem) Update(frame *ecs.UpdateFrame) {
	clear(s.grid)
	for _, e := range ecs.With2[Position, Collider](frame.Manager) {
		pos := ecs.ReadComponent[Position](e)
		key := [2]int{int(pos.X / s.cell), int(pos.Y / s.cell)}
		s.grid[key] = append(s.grid[key], e)
	}

	hits := 0
	for _, cell := range s.grid {
		for i := 0; i < len(cell); i++ {
			a := ecs.ReadComponent[Position](cell[i])
			ra := ecs.ReadComponent[Collider](cell[i]).Radius
			for j := i + 1; j < len(cell); j++ {
				b := ecs.ReadComponent[Position](cell[j])
				rb := ecs.ReadComponent[Collider](cell[j]).Radius
				if math.Hypot(a.X-b.X, a.Y-b.Y) < ra+rb {
					hits++
				}
			}
		}
	}

	if tally := s.tally.Get(); tally != nil {
		tally.LastFrame = hits
		tally.Total += int64(hits)
	}
}

type lifetimeSystem struct {
	expired int64
}

func (s *lifetimeSystem) Update(frame *ecs.UpdateFrame) {
	for _, e := range ecs.With[Lifetime](frame.Manager) {
		l := ecs.ReadComponent[Lifetime](e)
		l.Remaining -= frame.DeltaTime
		if l.Remaining <= 0 && !e.Destroyed() {
			e.Destroy()
			s.expired++
		}
	}
}

// spawnerSystem creates new entities during the update; they become
// visible on the following frame.
type spawnerSystem struct {
	world   *world
	perTick int
	spawned int64
	failed  int64
}

func (s *spawnerSystem) Update(frame *ecs.UpdateFrame) {
	for i := 0; i < s.perTick; i++ {
		if err := s.world.spawn(frame.Manager); err != nil {
			s.failed++
			continue
		}
		s.spawned++
	}
}
