package sim

import (
	"math"
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
)

// arriveSlack pads the arrival test so floating point drift can't leave a
// unit orbiting its destination.
const arriveSlack = 1.5

// sprayReach is how far beyond touching a builder can pour energy from.
const sprayReach = 6.0

// movementSystem turns each unit's front action into a commanded velocity,
// steps the physics engine, and syncs body state back into transforms. The
// sim never writes positions for body-backed entities directly.
type movementSystem struct {
	d *Driver
}

func (s *movementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *movementSystem) Update(dt time.Duration) {
	d := s.d
	d.store.Units.EachOrdered(func(id ecs.EntityID, u *game.Unit) {
		s.steer(id, u)
	})
	d.phys.Step(dt.Seconds())
	d.store.Units.EachOrdered(func(id ecs.EntityID, _ *game.Unit) {
		d.store.SyncBody(id)
	})
}

func (s *movementSystem) steer(id ecs.EntityID, u *game.Unit) {
	d := s.d
	tr := mustGet(d.store.Transforms, id)
	if tr == nil {
		return
	}
	for len(u.Actions) > 0 {
		act := &u.Actions[0]
		switch act.Kind {
		case game.ActionMove:
			if s.moveToward(id, u, tr, act.X, act.Y) {
				u.Actions = u.Actions[1:]
				continue
			}
		case game.ActionPatrol:
			if s.moveToward(id, u, tr, act.X, act.Y) {
				// Arrived at the far end; swap destination and anchor to
				// shuttle back. Patrol never pops on its own.
				act.X, u.PatrolAnchorX = u.PatrolAnchorX, act.X
				act.Y, u.PatrolAnchorY = u.PatrolAnchorY, act.Y
			}
		case game.ActionFight:
			if s.engaged(id, u, tr) {
				d.phys.SetVelocity(id, 0, 0)
				return
			}
			if s.moveToward(id, u, tr, act.X, act.Y) {
				u.Actions = u.Actions[1:]
				continue
			}
		case game.ActionRepair:
			if s.approachEntity(id, u, tr, act.Target) {
				u.Actions = u.Actions[1:]
				continue
			}
		case game.ActionBuild:
			if s.approachEntity(id, u, tr, act.Target) {
				u.Actions = u.Actions[1:]
				continue
			}
		}
		return
	}
	d.phys.SetVelocity(id, 0, 0)
}

// moveToward drives the unit at the destination and reports arrival.
func (s *movementSystem) moveToward(id ecs.EntityID, u *game.Unit, tr *game.Transform, x, y float64) bool {
	dx, dy := x-tr.X, y-tr.Y
	dist := math.Hypot(dx, dy)
	if dist <= u.CollisionRadius+arriveSlack {
		s.d.phys.SetVelocity(id, 0, 0)
		return true
	}
	vx := dx / dist * u.MoveSpeed
	vy := dy / dist * u.MoveSpeed
	if !finite(vx) || !finite(vy) {
		s.d.phys.SetVelocity(id, 0, 0)
		return true
	}
	s.d.phys.SetVelocity(id, vx, vy)
	return false
}

// approachEntity walks toward a target entity's body. The target vanishing
// counts as arrival so the action pops instead of wedging the queue. The
// stop distance leaves the builder outside the target's collision radius.
func (s *movementSystem) approachEntity(id ecs.EntityID, u *game.Unit, tr *game.Transform, target ecs.EntityID) bool {
	d := s.d
	if !d.store.Alive(target) {
		d.phys.SetVelocity(id, 0, 0)
		return true
	}
	tt, ok := d.store.Transforms.Get(target)
	if !ok {
		d.phys.SetVelocity(id, 0, 0)
		return true
	}
	dx, dy := tt.X-tr.X, tt.Y-tr.Y
	dist := math.Hypot(dx, dy)
	stop := u.CollisionRadius + s.targetRadius(target) + sprayReach
	if dist <= stop {
		d.phys.SetVelocity(id, 0, 0)
		// Builders hold position while pouring; the action stays current
		// so the economy phase sees the assignment. Done-ness is decided
		// there, not here.
		if b, bok := d.store.Builders.Get(id); bok {
			b.SprayTarget = target
		}
		return false
	}
	vx := dx / dist * u.MoveSpeed
	vy := dy / dist * u.MoveSpeed
	if !finite(vx) || !finite(vy) {
		d.phys.SetVelocity(id, 0, 0)
		return true
	}
	d.phys.SetVelocity(id, vx, vy)
	return false
}

// engaged reports whether any of the unit's weapons holds a live target
// inside its fightstop range, which halts an attack-move.
func (s *movementSystem) engaged(id ecs.EntityID, u *game.Unit, tr *game.Transform) bool {
	d := s.d
	rack, ok := d.store.Weapons.Get(id)
	if !ok {
		return false
	}
	for _, w := range rack.Weapons {
		if w.Target.IsZero() || !d.store.Alive(w.Target) {
			continue
		}
		tt, tok := d.store.Transforms.Get(w.Target)
		if !tok {
			continue
		}
		if math.Hypot(tt.X-tr.X, tt.Y-tr.Y) <= w.Range(data.TierFightStop, d.rangeMult(data.TierFightStop)) {
			return true
		}
	}
	return false
}

func (s *movementSystem) targetRadius(id ecs.EntityID) float64 {
	d := s.d
	if u, ok := d.store.Units.Get(id); ok {
		return u.CollisionRadius
	}
	if b, ok := d.store.Buildings.Get(id); ok {
		return math.Max(b.Width, b.Height) / 2
	}
	return 0
}
