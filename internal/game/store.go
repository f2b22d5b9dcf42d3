package game

import (
	"math"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/physics"
)

// Store owns all entity records and their derived indices: the component
// stores, the spatial grid, and the paired physics bodies. Both the
// authoritative world and the client mirror are a Store, so the renderer reads
// either through the same accessors.
type Store struct {
	world *ecs.World
	phys  physics.Engine

	Transforms  *ecs.Store[Transform]
	Units       *ecs.Store[Unit]
	Buildings   *ecs.Store[Building]
	Buildables  *ecs.Store[Buildable]
	Factories   *ecs.Store[Factory]
	Weapons     *ecs.Store[WeaponRack]
	Owners      *ecs.Store[Owner]
	Selectables *ecs.Store[Selectable]
	Projectiles *ecs.Store[Projectile]
	Commanders  *ecs.Store[Commander]
	Builders    *ecs.Store[Builder]

	grid *Grid
}

func NewStore(phys physics.Engine) *Store {
	s := &Store{
		world:       ecs.NewWorld(),
		phys:        phys,
		Transforms:  ecs.NewStore[Transform](),
		Units:       ecs.NewStore[Unit](),
		Buildings:   ecs.NewStore[Building](),
		Buildables:  ecs.NewStore[Buildable](),
		Factories:   ecs.NewStore[Factory](),
		Weapons:     ecs.NewStore[WeaponRack](),
		Owners:      ecs.NewStore[Owner](),
		Selectables: ecs.NewStore[Selectable](),
		Projectiles: ecs.NewStore[Projectile](),
		Commanders:  ecs.NewStore[Commander](),
		Builders:    ecs.NewStore[Builder](),
		grid:        NewGrid(),
	}
	reg := s.world.Registry()
	reg.Register(s.Transforms)
	reg.Register(s.Units)
	reg.Register(s.Buildings)
	reg.Register(s.Buildables)
	reg.Register(s.Factories)
	reg.Register(s.Weapons)
	reg.Register(s.Owners)
	reg.Register(s.Selectables)
	reg.Register(s.Projectiles)
	reg.Register(s.Commanders)
	reg.Register(s.Builders)
	return s
}

func (s *Store) Physics() physics.Engine { return s.phys }
func (s *Store) Grid() *Grid             { return s.grid }

// Create allocates a fresh entity id. Components are attached by the caller.
func (s *Store) Create() ecs.EntityID {
	return s.world.CreateEntity()
}

// Alive reports whether the id still resolves. A stale generation means the
// entity died; back-references treat that as "no target".
func (s *Store) Alive(id ecs.EntityID) bool {
	return s.world.Alive(id)
}

// Remove tears the entity down immediately: components, grid membership,
// and the paired physics body. Idempotent: removing an unknown or already
// removed id does nothing.
func (s *Store) Remove(id ecs.EntityID) {
	if !s.world.Alive(id) {
		return
	}
	s.releaseExternal(id)
	s.world.Registry().RemoveAll(id)
	s.world.Pool().Destroy(id)
}

// MarkDead queues an entity for the end-of-tick death sweep.
func (s *Store) MarkDead(id ecs.EntityID) {
	s.world.MarkForDestruction(id)
}

// PendingDead returns the ids queued for the death sweep, for event capture
// before the generations go stale.
func (s *Store) PendingDead() []ecs.EntityID {
	return s.world.PendingDestroy()
}

// FlushDead destroys every queued entity and returns the ids removed this
// tick. Runs once, in the death-sweep phase, so damage iteration is never
// invalidated mid-pass.
func (s *Store) FlushDead() []ecs.EntityID {
	for _, id := range s.world.PendingDestroy() {
		if s.world.Alive(id) {
			s.releaseExternal(id)
		}
	}
	return s.world.FlushDestroyQueue()
}

// releaseExternal drops everything outside the component stores: the physics
// body and the spatial index entry. Weapon back-references need no cleanup;
// the generational id goes stale on destroy.
func (s *Store) releaseExternal(id ecs.EntityID) {
	s.phys.RemoveBody(id)
	s.grid.Remove(id)
}

// SyncBody writes the physics body state back into the transform and the
// spatial index. Called for every body-backed entity after the physics step.
func (s *Store) SyncBody(id ecs.EntityID) {
	st, ok := s.phys.State(id)
	if !ok {
		return
	}
	tr, ok := s.Transforms.Get(id)
	if !ok {
		return
	}
	tr.X, tr.Y, tr.Rot = st.X, st.Y, st.Rot
	s.grid.Upsert(id, st.X, st.Y)
}

// Place writes a transform directly (buildings, projectiles, mirror
// reconstruction) and indexes it.
func (s *Store) Place(id ecs.EntityID, x, y, rot float64) {
	s.Transforms.Set(id, &Transform{X: x, Y: y, Rot: rot})
	s.grid.Upsert(id, x, y)
}

// Near returns live entity ids within radius of a point, ascending by id.
func (s *Store) Near(x, y, radius float64) []ecs.EntityID {
	candidates := s.grid.Near(x, y, radius)
	out := candidates[:0]
	for _, id := range candidates {
		tr, ok := s.Transforms.Get(id)
		if !ok {
			continue
		}
		if math.Hypot(tr.X-x, tr.Y-y) <= radius {
			out = append(out, id)
		}
	}
	return out
}

// OwnedBy returns all live entity ids owned by the player, ascending by id.
func (s *Store) OwnedBy(p PlayerID) []ecs.EntityID {
	var out []ecs.EntityID
	s.Owners.EachOrdered(func(id ecs.EntityID, o *Owner) {
		if o.Player == p {
			out = append(out, id)
		}
	})
	return out
}

// OwnerOf returns the owning player, or false for unowned/unknown entities.
func (s *Store) OwnerOf(id ecs.EntityID) (PlayerID, bool) {
	o, ok := s.Owners.Get(id)
	if !ok {
		return 0, false
	}
	return o.Player, true
}

// UnitCount returns the player's live unit count, for the production cap.
func (s *Store) UnitCount(p PlayerID) int {
	n := 0
	ecs.Each2(s.Units, s.Owners, func(_ ecs.EntityID, _ *Unit, o *Owner) {
		if o.Player == p {
			n++
		}
	})
	return n
}

// CommanderCount returns how many live commanders the player retains.
func (s *Store) CommanderCount(p PlayerID) int {
	n := 0
	ecs.Each2(s.Commanders, s.Owners, func(_ ecs.EntityID, _ *Commander, o *Owner) {
		if o.Player == p {
			n++
		}
	})
	return n
}

// KindOf classifies a live entity for the wire.
func (s *Store) KindOf(id ecs.EntityID) (Kind, bool) {
	switch {
	case s.Projectiles.Has(id):
		return KindProjectile, true
	case s.Buildings.Has(id):
		return KindBuilding, true
	case s.Units.Has(id):
		return KindUnit, true
	default:
		return 0, false
	}
}
