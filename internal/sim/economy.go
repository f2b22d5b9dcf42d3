package sim

import (
	"time"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/core/event"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/game"
)

// economySystem runs the per-tick energy cycle: credit every player's income
// and fix the tick's spending pot, then let every consumer draw from it in
// ascending entity id order. Draws are additive against the fixed pot, so a
// tick's construction can never spend energy that another consumer's request
// merely looked at.
type economySystem struct {
	d *Driver
}

func (s *economySystem) Phase() coresys.Phase { return coresys.PhaseEconomy }

func (s *economySystem) Update(dt time.Duration) {
	d := s.d
	step := dt.Seconds()

	production := make(map[game.PlayerID]float64)
	ecs.Each3(d.store.Buildings, d.store.Buildables, d.store.Owners,
		func(id ecs.EntityID, b *game.Building, bd *game.Buildable, o *game.Owner) {
			if !bd.Complete {
				return
			}
			if bp := d.table.Building(b.Type); bp != nil {
				production[o.Player] += bp.EnergyProduction
			}
		})
	for _, p := range d.ledger.Players() {
		d.ledger.Credit(p, production[p], step)
	}

	s.runBuilders(step)
	s.runSites(step)
	s.runFactories(step)

	for _, p := range d.ledger.Players() {
		if st, ok := d.ledger.State(p); ok {
			event.Emit(d.bus, game.EconomyChanged{Player: p, Stockpile: st.Stockpile})
		}
	}
}

// runBuilders resolves each builder's spray assignment for this tick:
// starting ghost sites, repairing damaged entities, and recording the spray
// effect. The assignment was written by the movement phase when the builder
// got in reach; it is consumed and re-earned every tick.
func (s *economySystem) runBuilders(step float64) {
	d := s.d
	ecs.Each2(d.store.Builders, d.store.Owners, func(id ecs.EntityID, b *game.Builder, o *game.Owner) {
		target := b.SprayTarget
		b.SprayTarget = 0
		if target.IsZero() || !d.store.Alive(target) {
			return // not in reach yet, or the target died; movement sorts it out
		}
		tt := mustGet(d.store.Transforms, target)
		if tt == nil {
			return
		}
		if bd, ok := d.store.Buildables.Get(target); ok && !bd.Complete {
			// Construction: the first spray starts a ghost; from then on the
			// site draws on its own each tick it has a sprayer.
			bd.Ghost = false
			d.sprays = append(d.sprays, game.SprayTarget{Builder: id, Site: target, X: tt.X, Y: tt.Y})
			return
		}
		if s.repair(o.Player, target, step) {
			d.sprays = append(d.sprays, game.SprayTarget{Builder: id, Site: target, X: tt.X, Y: tt.Y})
			return
		}
		// Nothing left to pour into; let the builder move on.
		s.popFrontAction(id)
	})
}

// repair heals a damaged complete entity at the energy-per-hp ratio of its
// blueprint. Returns false once the target is at full health.
func (s *economySystem) repair(p game.PlayerID, target ecs.EntityID, step float64) bool {
	d := s.d
	hp, maxHP, cost, rate := s.repairStats(target)
	if maxHP <= 0 || hp >= maxHP || cost <= 0 || rate <= 0 {
		return false
	}
	perHP := cost / maxHP
	want := rate * step
	if missing := (maxHP - hp) * perHP; want > missing {
		want = missing
	}
	spent := d.ledger.TrySpend(p, want)
	if spent <= 0 {
		return true // still assigned, just starved this tick
	}
	s.heal(target, spent/perHP)
	return true
}

func (s *economySystem) repairStats(id ecs.EntityID) (hp, maxHP, cost, rate float64) {
	d := s.d
	if u, ok := d.store.Units.Get(id); ok {
		if bp := d.table.Unit(u.Type); bp != nil {
			return u.HP, u.MaxHP, bp.BuildCost, bp.BuildRate
		}
	}
	if b, ok := d.store.Buildings.Get(id); ok {
		if bp := d.table.Building(b.Type); bp != nil {
			return b.HP, b.MaxHP, bp.BuildCost, bp.BuildRate
		}
	}
	return 0, 0, 0, 0
}

func (s *economySystem) heal(id ecs.EntityID, amount float64) {
	if u, ok := s.d.store.Units.Get(id); ok {
		u.HP = clampf(u.HP+amount, 0, u.MaxHP)
		return
	}
	if b, ok := s.d.store.Buildings.Get(id); ok {
		b.HP = clampf(b.HP+amount, 0, b.MaxHP)
	}
}

// runSites advances started construction sites. A site draws up to its
// blueprint rate from the owner's pot; progress and structure HP grow with
// the energy actually delivered, never the request.
func (s *economySystem) runSites(step float64) {
	d := s.d
	ecs.Each3(d.store.Buildings, d.store.Buildables, d.store.Owners,
		func(id ecs.EntityID, b *game.Building, bd *game.Buildable, o *game.Owner) {
			if bd.Complete || bd.Ghost || bd.Cost <= 0 {
				return
			}
			want := bd.Rate * step
			if remaining := (1 - bd.Progress) * bd.Cost; want > remaining {
				want = remaining
			}
			spent := d.ledger.TrySpend(o.Player, want)
			if spent <= 0 {
				return
			}
			bd.Progress = snapProgress(bd.Progress + spent/bd.Cost)
			b.HP = clampf(b.HP+spent/bd.Cost*b.MaxHP, 0, b.MaxHP)
		})
}

// runFactories advances the front queue item of every complete factory.
// Progress pins at 1 when finished; the completion phase decides whether the
// unit can actually spawn.
func (s *economySystem) runFactories(step float64) {
	d := s.d
	ecs.Each3(d.store.Buildings, d.store.Factories, d.store.Owners,
		func(id ecs.EntityID, b *game.Building, f *game.Factory, o *game.Owner) {
			if bd, ok := d.store.Buildables.Get(id); !ok || !bd.Complete {
				return
			}
			if len(f.Queue) == 0 || f.Progress >= 1 {
				return
			}
			bp := d.table.Unit(f.Queue[0])
			if bp == nil || bp.BuildCost <= 0 {
				// Queue entry no table row can back; drop it.
				f.Queue = f.Queue[1:]
				f.Progress = 0
				return
			}
			want := bp.BuildRate * step
			if remaining := (1 - f.Progress) * bp.BuildCost; want > remaining {
				want = remaining
			}
			spent := d.ledger.TrySpend(o.Player, want)
			if spent <= 0 {
				return
			}
			f.Progress = snapProgress(f.Progress + spent/bp.BuildCost)
		})
}

// popFrontAction drops a unit's current repair/build action when its target
// is gone or finished.
func (s *economySystem) popFrontAction(id ecs.EntityID) {
	u, ok := s.d.store.Units.Get(id)
	if !ok || len(u.Actions) == 0 {
		return
	}
	if k := u.Actions[0].Kind; k == game.ActionRepair || k == game.ActionBuild {
		u.Actions = u.Actions[1:]
	}
}

// snapProgress clamps to [0,1] and absorbs the division residue left by
// spending the exact remaining cost, so finished work reads as exactly 1.
func snapProgress(p float64) float64 {
	if p >= 1-1e-9 {
		return 1
	}
	return clampf(p, 0, 1)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
