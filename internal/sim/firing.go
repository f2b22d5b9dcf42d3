package sim

import (
	"math"
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
)

// firingSystem ticks cooldowns and discharges ready weapons at their locked
// targets. What a discharge produces depends on the shot kind: ballistic and
// beam shots spawn projectile entities; instant and force shots resolve at
// the target point immediately.
type firingSystem struct {
	d *Driver
}

func (s *firingSystem) Phase() coresys.Phase { return coresys.PhaseFiring }

func (s *firingSystem) Update(dt time.Duration) {
	d := s.d
	step := dt.Seconds()
	d.store.Weapons.EachOrdered(func(id ecs.EntityID, rack *game.WeaponRack) {
		tr, ok := d.store.Transforms.Get(id)
		if !ok {
			return
		}
		for _, w := range rack.Weapons {
			if w.CooldownLeft > 0 {
				w.CooldownLeft = math.Max(0, w.CooldownLeft-step)
			}
			if w.CooldownLeft > 0 || w.Target.IsZero() {
				continue
			}
			if w.Blueprint.Special && !w.SpecialFire {
				continue
			}
			if !d.store.Alive(w.Target) {
				w.Target = 0
				continue
			}
			tt, tok := d.store.Transforms.Get(w.Target)
			if !tok {
				w.Target = 0
				continue
			}
			if math.Hypot(tt.X-tr.X, tt.Y-tr.Y) > w.Range(data.TierFire, d.rangeMult(data.TierFire)) {
				continue // held but out of reach; release range decides whether to drop
			}
			s.discharge(id, w, tr, tt)
			w.CooldownLeft = w.Blueprint.Cooldown
		}
	})
}

func (s *firingSystem) discharge(src ecs.EntityID, w *game.Weapon, tr, tt *game.Transform) {
	d := s.d
	bp := &w.Blueprint.Shot
	switch bp.Kind {
	case data.ShotBallistic:
		s.spawnBallistic(src, w, tr, tt)
		d.emitAudio(game.AudioFire, src, tr.X, tr.Y)
	case data.ShotBeam:
		s.spawnBeam(src, w, tr)
		d.emitAudio(game.AudioLaserStart, src, tr.X, tr.Y)
	case data.ShotInstant:
		d.applySplash(bp, src, tt.X, tt.Y, 0, 0, 1)
		d.emitAudio(game.AudioFire, src, tr.X, tr.Y)
	case data.ShotForce:
		// Pure impulse: applySplash with zero damage still shoves.
		d.applySplash(bp, src, tt.X, tt.Y, 0, 0, 1)
		d.emitAudio(game.AudioFire, src, tr.X, tr.Y)
	}
}

// spawnBallistic launches a dumb-fired body at the target's current
// position. It does not home; the lead is the target's problem.
func (s *firingSystem) spawnBallistic(src ecs.EntityID, w *game.Weapon, tr, tt *game.Transform) {
	d := s.d
	bp := &w.Blueprint.Shot
	dx, dy := tt.X-tr.X, tt.Y-tr.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dist = 1
	}
	id := d.store.Create()
	d.store.Projectiles.Set(id, &game.Projectile{
		Blueprint: bp,
		WeaponID:  w.Blueprint.ID,
		VelX:      dx / dist * bp.Speed,
		VelY:      dy / dist * bp.Speed,
		Source:    src,
		HitSet:    make(map[ecs.EntityID]bool),
	})
	if owner, ok := d.store.OwnerOf(src); ok {
		d.store.Owners.Set(id, &game.Owner{Player: owner})
	}
	d.store.Place(id, tr.X, tr.Y, math.Atan2(dy, dx))
}

// spawnBeam creates a live beam entity pinned to the shooter and the target.
// The projectile phase re-evaluates the endpoint every tick for the beam's
// duration.
func (s *firingSystem) spawnBeam(src ecs.EntityID, w *game.Weapon, tr *game.Transform) {
	d := s.d
	bp := &w.Blueprint.Shot
	id := d.store.Create()
	d.store.Projectiles.Set(id, &game.Projectile{
		Blueprint: bp,
		WeaponID:  w.Blueprint.ID,
		Source:    src,
		Target:    w.Target,
		HitSet:    make(map[ecs.EntityID]bool),
	})
	if owner, ok := d.store.OwnerOf(src); ok {
		d.store.Owners.Set(id, &game.Owner{Player: owner})
	}
	d.store.Place(id, tr.X, tr.Y, 0)
}
