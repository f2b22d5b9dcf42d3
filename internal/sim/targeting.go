package sim

import (
	"math"
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
)

// targetingSystem acquires and releases weapon targets. A held target is
// kept until it dies or leaves the release range; without one, the weapon
// scans for the nearest hostile inside its see range and commits the lock
// only once the candidate is inside lock range. Iteration is in ascending
// entity id order and ties break on the lower id, so two identical matches
// resolve identically.
type targetingSystem struct {
	d *Driver
}

func (s *targetingSystem) Phase() coresys.Phase { return coresys.PhaseTargeting }

func (s *targetingSystem) Update(time.Duration) {
	d := s.d
	d.store.Weapons.EachOrdered(func(id ecs.EntityID, rack *game.WeaponRack) {
		owner, ok := d.store.OwnerOf(id)
		if !ok {
			return
		}
		tr, ok := d.store.Transforms.Get(id)
		if !ok {
			return
		}
		// Incomplete buildings don't shoot.
		if bd, bok := d.store.Buildables.Get(id); bok && !bd.Complete {
			return
		}
		for _, w := range rack.Weapons {
			s.retain(owner, tr, w)
			if w.Target.IsZero() {
				s.acquire(id, owner, tr, w)
			}
		}
	})
}

// retain drops a held target that died or escaped the release range. The
// release band sits outside fire range so a target on the boundary doesn't
// flicker in and out of lock.
func (s *targetingSystem) retain(owner game.PlayerID, tr *game.Transform, w *game.Weapon) {
	d := s.d
	if w.Target.IsZero() {
		return
	}
	if !d.hostile(owner, w.Target) {
		w.Target = 0
		return
	}
	tt, ok := d.store.Transforms.Get(w.Target)
	if !ok {
		w.Target = 0
		return
	}
	if math.Hypot(tt.X-tr.X, tt.Y-tr.Y) > w.Range(data.TierRelease, d.rangeMult(data.TierRelease)) {
		w.Target = 0
	}
}

// acquire scans for the nearest hostile inside see range and locks it only
// if it is already inside lock range. The lock band can sit outside fire
// range; the firing phase still holds the shot until the target closes.
func (s *targetingSystem) acquire(self ecs.EntityID, owner game.PlayerID, tr *game.Transform, w *game.Weapon) {
	d := s.d
	see := w.Range(data.TierSee, d.rangeMult(data.TierSee))
	var (
		best     ecs.EntityID
		bestDist = math.Inf(1)
	)
	for _, cand := range d.store.Near(tr.X, tr.Y, see) {
		if cand == self || !d.hostile(owner, cand) {
			continue
		}
		ct := mustGet(d.store.Transforms, cand)
		dist := math.Hypot(ct.X-tr.X, ct.Y-tr.Y)
		if dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	if best.IsZero() {
		return
	}
	if bestDist <= w.Range(data.TierLock, d.rangeMult(data.TierLock)) {
		w.Target = best
	}
}
