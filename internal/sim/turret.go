package sim

import (
	"math"
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/game"
)

// turretSystem rotates every weapon's turret toward its target with the
// blueprint's angular acceleration and drag. A turret without a target
// relaxes toward the hull facing. Aim is cosmetic plus a fire gate; it
// never moves the entity.
type turretSystem struct {
	d *Driver
}

func (s *turretSystem) Phase() coresys.Phase { return coresys.PhaseTurrets }

func (s *turretSystem) Update(dt time.Duration) {
	d := s.d
	step := dt.Seconds()
	d.store.Weapons.EachOrdered(func(id ecs.EntityID, rack *game.WeaponRack) {
		tr, ok := d.store.Transforms.Get(id)
		if !ok {
			return
		}
		for _, w := range rack.Weapons {
			want := tr.Rot
			if !w.Target.IsZero() && d.store.Alive(w.Target) {
				if tt, tok := d.store.Transforms.Get(w.Target); tok {
					want = math.Atan2(tt.Y-tr.Y, tt.X-tr.X)
				}
			}
			diff := normalizeAngle(want - w.TurretAngle)
			w.TurretVel += w.Blueprint.TurretTurnAccel * sign(diff) * step
			w.TurretVel *= math.Max(0, 1-w.Blueprint.TurretDrag*step)
			w.TurretAngle = normalizeAngle(w.TurretAngle + w.TurretVel*step)
			// Snap when the swing would overshoot a near-aligned turret,
			// otherwise low drag oscillates forever.
			if math.Abs(normalizeAngle(want-w.TurretAngle)) < math.Abs(w.TurretVel*step) {
				w.TurretAngle = want
				w.TurretVel = 0
			}
		}
	})
}

// normalizeAngle wraps to (-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
