package sim

import (
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/game"
)

// completionSystem flips finished construction to complete and rolls
// finished factory items off the queue as live units. A factory whose owner
// sits at the unit cap holds its finished item at full progress and spawns
// it the first tick the cap clears; the energy already spent is never lost.
type completionSystem struct {
	d *Driver
}

func (s *completionSystem) Phase() coresys.Phase { return coresys.PhaseCompletion }

func (s *completionSystem) Update(time.Duration) {
	d := s.d

	ecs.Each2(d.store.Buildings, d.store.Buildables,
		func(id ecs.EntityID, b *game.Building, bd *game.Buildable) {
			if bd.Complete || bd.Progress < 1 {
				return
			}
			bd.Complete = true
			bd.Progress = 1
		})

	ecs.Each2(d.store.Factories, d.store.Owners,
		func(id ecs.EntityID, f *game.Factory, o *game.Owner) {
			if len(f.Queue) == 0 || f.Progress < 1 {
				return
			}
			if bd, ok := d.store.Buildables.Get(id); !ok || !bd.Complete {
				return
			}
			if d.store.UnitCount(o.Player) >= d.params.UnitCap {
				return // paused at the cap, queue slot kept
			}
			s.rollOff(id, f, o.Player)
		})
}

// rollOff spawns the finished unit at the factory's doorstep and hands it
// the factory's waypoints plus the rally point as its opening move orders.
func (s *completionSystem) rollOff(factory ecs.EntityID, f *game.Factory, p game.PlayerID) {
	d := s.d
	typeID := f.Queue[0]
	tr := mustGet(d.store.Transforms, factory)
	b := mustGet(d.store.Buildings, factory)
	x, y := tr.X, tr.Y
	if b != nil {
		y += b.Height/2 + 2
	}
	id, err := d.SpawnUnit(p, typeID, x, y)
	if err != nil {
		// The queue validated against the table at enqueue; a miss here means
		// the table changed under a running match. Drop the item.
		f.Queue = f.Queue[1:]
		f.Progress = 0
		return
	}
	f.Queue = f.Queue[1:]
	f.Progress = 0

	u := mustGet(d.store.Units, id)
	for _, wp := range f.Waypoints {
		u.Actions = append(u.Actions, game.Action{Kind: game.ActionMove, X: wp[0], Y: wp[1]})
	}
	u.Actions = append(u.Actions, game.Action{Kind: game.ActionMove, X: f.RallyX, Y: f.RallyY})
}
