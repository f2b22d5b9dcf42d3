// Package replication moves world state across the wire: the server builds
// a full snapshot of everything each cadence tick and ships it to every
// session; the client folds snapshots into a mirror and dead-reckons between
// them. There are no diffs and no acks; a lost snapshot costs nothing
// because the next one carries the complete truth.
package replication

import (
	"math"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/game"
)

// EntityRecord is one entity's wire form. Every live entity serializes to
// exactly one record; the mirror needs nothing else to reconstruct it.
type EntityRecord struct {
	ID    uint64
	Kind  game.Kind
	Owner int32
	Type  string // unit/building blueprint id, or weapon id for projectiles

	X, Y, Rot  float64
	VelX, VelY float64
	HP, MaxHP  float64
	Radius     float64 // body radius the mirror registers with its physics engine

	Progress float64 // construction or factory-front progress
	Complete bool
	Ghost    bool

	Target uint64 // beam endpoint entity, zero otherwise
}

// EconomyRecord is one player's account on the wire.
type EconomyRecord struct {
	Player       int32
	Stockpile    float64
	MaxStockpile float64
	Production   float64
	Expenditure  float64
}

// AudioRecord is one fire-and-forget cue riding this snapshot only.
type AudioRecord struct {
	Kind   game.AudioCueKind
	Source uint64
	X, Y   float64
}

// SprayRecord is one live builder→site energy spray. Sprays are current
// state, not events: each snapshot carries the full set and replaces the
// previous one on the mirror.
type SprayRecord struct {
	Builder uint64
	Site    uint64
	X, Y    float64
}

// NetworkGameState is one complete snapshot. Entities are in ascending id
// order so identical worlds serialize identically.
type NetworkGameState struct {
	Tick      uint64
	Entities  []EntityRecord
	Economies []EconomyRecord
	Audio     []AudioRecord
	Sprays    []SprayRecord
	GameOver  bool
	Winner    int32
}

// BuildSnapshot serializes the full store. audio is this snapshot's cue
// batch; the caller drains it from the driver so cues ship exactly once.
// sprays is the tick's live spray set and replaces whatever the mirror held.
func BuildSnapshot(st *game.Store, ledger *game.Ledger, tick uint64, audio []game.AudioCue, sprays []game.SprayTarget, winner game.PlayerID, over bool) *NetworkGameState {
	ngs := &NetworkGameState{
		Tick:     tick,
		GameOver: over,
		Winner:   int32(winner),
	}

	st.Transforms.EachOrdered(func(id ecs.EntityID, tr *game.Transform) {
		kind, ok := st.KindOf(id)
		if !ok {
			return
		}
		rec := EntityRecord{
			ID:   uint64(id),
			Kind: kind,
			X:    tr.X, Y: tr.Y, Rot: tr.Rot,
		}
		if owner, ok := st.OwnerOf(id); ok {
			rec.Owner = int32(owner)
		}
		switch kind {
		case game.KindUnit:
			u, _ := st.Units.Get(id)
			rec.Type = u.Type
			rec.HP, rec.MaxHP = u.HP, u.MaxHP
			rec.Radius = u.CollisionRadius
			rec.Complete = true
			if bs, ok := st.Physics().State(id); ok {
				rec.VelX, rec.VelY = bs.VelX, bs.VelY
			}
		case game.KindBuilding:
			b, _ := st.Buildings.Get(id)
			rec.Type = b.Type
			rec.HP, rec.MaxHP = b.HP, b.MaxHP
			rec.Radius = math.Max(b.Width, b.Height) / 2
			if bd, ok := st.Buildables.Get(id); ok {
				rec.Progress = bd.Progress
				rec.Complete = bd.Complete
				rec.Ghost = bd.Ghost
			}
			if f, ok := st.Factories.Get(id); ok && len(f.Queue) > 0 {
				rec.Progress = f.Progress
			}
		case game.KindProjectile:
			p, _ := st.Projectiles.Get(id)
			rec.Type = p.WeaponID
			rec.VelX, rec.VelY = p.VelX, p.VelY
			rec.Complete = true
			rec.Target = uint64(p.Target)
		}
		ngs.Entities = append(ngs.Entities, rec)
	})

	for _, p := range ledger.Players() {
		es, _ := ledger.State(p)
		ngs.Economies = append(ngs.Economies, EconomyRecord{
			Player:       int32(p),
			Stockpile:    es.Stockpile,
			MaxStockpile: es.MaxStockpile,
			Production:   es.Production,
			Expenditure:  es.Expenditure,
		})
	}

	for _, cue := range audio {
		ngs.Audio = append(ngs.Audio, AudioRecord{
			Kind:   cue.Kind,
			Source: uint64(cue.Source),
			X:      cue.X, Y: cue.Y,
		})
	}

	for _, sp := range sprays {
		ngs.Sprays = append(ngs.Sprays, SprayRecord{
			Builder: uint64(sp.Builder),
			Site:    uint64(sp.Site),
			X:       sp.X, Y: sp.Y,
		})
	}
	return ngs
}
