package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/core/event"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/game"
)

// deathSystem is the end-of-tick sweep: everything marked dead during the
// tick is destroyed here in one batch, so no damage pass ever iterates a
// store it is mutating. Death events carry the entity's last known state,
// captured before the ids go stale.
type deathSystem struct {
	d *Driver
}

func (s *deathSystem) Phase() coresys.Phase { return coresys.PhaseDeath }

func (s *deathSystem) Update(time.Duration) {
	d := s.d
	type obituary struct {
		ev    game.UnitDied
		cueXY [2]float64
		loud  bool // projectiles expire silently
	}
	var obits []obituary
	for _, id := range d.store.PendingDead() {
		if !d.store.Alive(id) {
			continue
		}
		var ob obituary
		ob.ev.ID = id
		if owner, ok := d.store.OwnerOf(id); ok {
			ob.ev.Owner = owner
		}
		if tr, ok := d.store.Transforms.Get(id); ok {
			ob.ev.X, ob.ev.Y = tr.X, tr.Y
			ob.cueXY = [2]float64{tr.X, tr.Y}
		}
		ob.loud = !d.store.Projectiles.Has(id)
		obits = append(obits, ob)
	}
	removed := d.store.FlushDead()
	for _, ob := range obits {
		if ob.loud {
			d.emitAudio(game.AudioDeath, ob.ev.ID, ob.cueXY[0], ob.cueXY[1])
			event.Emit(d.bus, ob.ev)
		}
	}
	if len(removed) > 0 {
		d.log.Debug("death sweep", zap.Int("removed", len(removed)))
	}
	d.state = StateEmitting
}

// winSystem ends the match when exactly one player still holds a commander.
// Perpetual mode (sandbox) never ends.
type winSystem struct {
	d *Driver
}

func (s *winSystem) Phase() coresys.Phase { return coresys.PhaseWin }

func (s *winSystem) Update(time.Duration) {
	d := s.d
	if d.params.Perpetual || d.gameOver {
		return
	}
	players := d.ledger.Players()
	if len(players) < 2 {
		return
	}
	var alive []game.PlayerID
	for _, p := range players {
		if d.store.CommanderCount(p) > 0 {
			alive = append(alive, p)
		}
	}
	if len(alive) != 1 {
		return
	}
	d.gameOver = true
	d.winner = alive[0]
	d.log.Info("game over", zap.Int32("winner", int32(d.winner)))
	event.Emit(d.bus, game.GameOver{Winner: d.winner})
}
