package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/core/event"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/game"
)

// drainSystem empties the command queue and applies every command in FIFO
// order. Commands referencing dead entities, foreign entities, or unknown
// blueprints are dropped without side effects.
type drainSystem struct {
	d *Driver
}

func (s *drainSystem) Phase() coresys.Phase { return coresys.PhaseDrain }

func (s *drainSystem) Update(dt time.Duration) {
	for _, cmd := range s.d.queue.DrainAll() {
		s.apply(cmd)
	}
	s.d.state = StateResolving
}

func (s *drainSystem) apply(cmd game.Command) {
	d := s.d
	switch cmd.Type {
	case game.CmdMove:
		s.order(cmd, game.Action{Kind: game.ActionMove, X: cmd.X, Y: cmd.Y})
	case game.CmdPatrol:
		s.order(cmd, game.Action{Kind: game.ActionPatrol, X: cmd.X, Y: cmd.Y})
	case game.CmdFight:
		s.order(cmd, game.Action{Kind: game.ActionFight, X: cmd.X, Y: cmd.Y})
	case game.CmdBuild:
		s.applyBuild(cmd)
	case game.CmdRepair:
		if !d.store.Alive(cmd.Target) {
			s.reject(cmd, "repair target gone")
			return
		}
		s.order(cmd, game.Action{Kind: game.ActionRepair, Target: cmd.Target})
	case game.CmdSelect:
		s.applySelect(cmd)
	case game.CmdClearSelection:
		s.applyClearSelection(cmd)
	case game.CmdQueueUnit:
		s.applyQueueUnit(cmd)
	case game.CmdCancelQueueItem:
		s.applyCancelQueueItem(cmd)
	case game.CmdToggleSpecialFire:
		s.applyToggleSpecialFire(cmd)
	default:
		s.reject(cmd, "unknown command type")
	}
}

// order assigns an action to every valid subject unit. Append extends the
// queue; otherwise the action replaces whatever the unit was doing.
func (s *drainSystem) order(cmd game.Command, act game.Action) {
	d := s.d
	for _, id := range cmd.Units {
		u, ok := s.ownedUnit(cmd.Player, id)
		if !ok {
			continue
		}
		if act.Kind == game.ActionRepair && !d.store.Builders.Has(id) {
			continue
		}
		if cmd.Append {
			u.Actions = append(u.Actions, act)
			continue
		}
		u.Actions = []game.Action{act}
		if act.Kind == game.ActionPatrol {
			tr := mustGet(d.store.Transforms, id)
			u.PatrolAnchorX, u.PatrolAnchorY = tr.X, tr.Y
		}
	}
}

// applyBuild places a ghost site and sends the command's builders to raise it.
func (s *drainSystem) applyBuild(cmd game.Command) {
	d := s.d
	site, err := d.placeBuildingSite(cmd.Player, cmd.TypeID, cmd.X, cmd.Y)
	if err != nil {
		s.reject(cmd, err.Error())
		return
	}
	for _, id := range cmd.Units {
		u, ok := s.ownedUnit(cmd.Player, id)
		if !ok || !d.store.Builders.Has(id) {
			continue
		}
		act := game.Action{Kind: game.ActionBuild, X: cmd.X, Y: cmd.Y, Target: site, TypeID: cmd.TypeID}
		if cmd.Append {
			u.Actions = append(u.Actions, act)
		} else {
			u.Actions = []game.Action{act}
		}
	}
}

func (s *drainSystem) applySelect(cmd game.Command) {
	d := s.d
	var selected []ecs.EntityID
	for _, id := range cmd.Units {
		if !d.store.Alive(id) {
			continue
		}
		owner, ok := d.store.OwnerOf(id)
		if !ok || owner != cmd.Player {
			continue
		}
		if sel, ok := d.store.Selectables.Get(id); ok {
			sel.Selected = true
			selected = append(selected, id)
		}
	}
	event.Emit(d.bus, game.SelectionChanged{Player: cmd.Player, Selected: selected})
}

func (s *drainSystem) applyClearSelection(cmd game.Command) {
	d := s.d
	ecs.Each2(d.store.Selectables, d.store.Owners, func(_ ecs.EntityID, sel *game.Selectable, o *game.Owner) {
		if o.Player == cmd.Player {
			sel.Selected = false
		}
	})
	event.Emit(d.bus, game.SelectionChanged{Player: cmd.Player})
}

func (s *drainSystem) applyQueueUnit(cmd game.Command) {
	d := s.d
	f, ok := s.ownedFactory(cmd.Player, cmd.Target)
	if !ok {
		s.reject(cmd, "not an owned factory")
		return
	}
	bbp := d.table.Building(mustGet(d.store.Buildings, cmd.Target).Type)
	if bbp == nil || !bbp.CanBuild(cmd.TypeID) {
		s.reject(cmd, "factory cannot build that unit")
		return
	}
	f.Queue = append(f.Queue, cmd.TypeID)
}

// applyCancelQueueItem removes one queue slot. Cancelling the front item
// resets its build progress; energy already poured in is forfeit.
func (s *drainSystem) applyCancelQueueItem(cmd game.Command) {
	f, ok := s.ownedFactory(cmd.Player, cmd.Target)
	if !ok {
		s.reject(cmd, "not an owned factory")
		return
	}
	if cmd.Index < 0 || cmd.Index >= len(f.Queue) {
		s.reject(cmd, "queue index out of range")
		return
	}
	f.Queue = append(f.Queue[:cmd.Index], f.Queue[cmd.Index+1:]...)
	if cmd.Index == 0 {
		f.Progress = 0
	}
}

func (s *drainSystem) applyToggleSpecialFire(cmd game.Command) {
	d := s.d
	for _, id := range cmd.Units {
		if _, ok := s.ownedUnit(cmd.Player, id); !ok {
			continue
		}
		rack, ok := d.store.Weapons.Get(id)
		if !ok {
			continue
		}
		for _, w := range rack.Weapons {
			w.SpecialFire = !w.SpecialFire
		}
	}
}

// ownedUnit resolves a subject id to a live unit owned by the issuer.
func (s *drainSystem) ownedUnit(p game.PlayerID, id ecs.EntityID) (*game.Unit, bool) {
	d := s.d
	if !d.store.Alive(id) {
		return nil, false
	}
	owner, ok := d.store.OwnerOf(id)
	if !ok || owner != p {
		return nil, false
	}
	return d.store.Units.Get(id)
}

func (s *drainSystem) ownedFactory(p game.PlayerID, id ecs.EntityID) (*game.Factory, bool) {
	d := s.d
	if !d.store.Alive(id) {
		return nil, false
	}
	owner, ok := d.store.OwnerOf(id)
	if !ok || owner != p {
		return nil, false
	}
	bd, ok := d.store.Buildables.Get(id)
	if !ok || !bd.Complete {
		return nil, false
	}
	return d.store.Factories.Get(id)
}

func (s *drainSystem) reject(cmd game.Command, reason string) {
	s.d.log.Debug("command rejected",
		zap.String("type", cmd.Type.String()),
		zap.Int32("player", int32(cmd.Player)),
		zap.String("reason", reason))
}
