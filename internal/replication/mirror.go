package replication

import (
	"sort"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/physics"
)

// MirrorEntity is one replicated entity on the client: the last authoritative
// record plus the dead-reckoned position the renderer actually draws.
type MirrorEntity struct {
	EntityRecord
	PredX, PredY float64
}

// Mirror is the client-side replica. It holds no game logic: snapshots are
// folded in by id (update known, create unknown, tear down absent) and the
// predictor advances positions between snapshots by each record's last
// velocity. Whatever the next snapshot says always wins, prediction included.
//
// The mirror owns a client-side physics body per replicated entity: a fresh
// handle is requested the first time an id appears and released when the id
// vanishes from a snapshot. A dangling handle would move an unrelated entity
// once the engine recycles it, so teardown is not optional.
type Mirror struct {
	phys     physics.Engine // nil skips client body bookkeeping
	beamStop func(id uint64)

	entities  map[uint64]*MirrorEntity
	economies map[int32]EconomyRecord
	tick      uint64
	gameOver  bool
	winner    int32

	// audio is the batch that arrived with the latest snapshot; the consumer
	// reads it once via DrainAudio and it is gone.
	audio []AudioRecord
	// sprays is the latest snapshot's live spray set, replaced wholesale.
	sprays []SprayRecord
}

func NewMirror(phys physics.Engine) *Mirror {
	return &Mirror{
		phys:      phys,
		entities:  make(map[uint64]*MirrorEntity),
		economies: make(map[int32]EconomyRecord),
	}
}

// OnBeamStop registers the hook called when a live beam's id vanishes from a
// snapshot, so the audio layer can cut its loop even when the stop cue's
// snapshot was lost.
func (m *Mirror) OnBeamStop(fn func(id uint64)) {
	m.beamStop = fn
}

// Apply folds one snapshot into the mirror. Out-of-order snapshots (a tick
// not newer than the current one) are dropped whole.
func (m *Mirror) Apply(ngs *NetworkGameState) {
	if ngs.Tick <= m.tick && m.tick != 0 {
		return
	}
	m.tick = ngs.Tick
	m.gameOver = ngs.GameOver
	m.winner = ngs.Winner

	seen := make(map[uint64]struct{}, len(ngs.Entities))
	for i := range ngs.Entities {
		rec := ngs.Entities[i]
		seen[rec.ID] = struct{}{}
		if ent, ok := m.entities[rec.ID]; ok {
			ent.EntityRecord = rec
			ent.PredX, ent.PredY = rec.X, rec.Y
			continue
		}
		m.entities[rec.ID] = &MirrorEntity{
			EntityRecord: rec,
			PredX:        rec.X,
			PredY:        rec.Y,
		}
		if m.phys != nil {
			m.phys.CreateBody(ecs.EntityID(rec.ID), rec.X, rec.Y, rec.Radius)
		}
	}
	// Anything the snapshot no longer mentions is gone; full snapshots carry
	// every live entity, so absence is death.
	for id, ent := range m.entities {
		if _, ok := seen[id]; ok {
			continue
		}
		if m.phys != nil {
			m.phys.RemoveBody(ecs.EntityID(id))
		}
		if m.beamStop != nil && ent.Kind == game.KindProjectile && ent.Target != 0 {
			m.beamStop(id)
		}
		delete(m.entities, id)
	}

	for _, ec := range ngs.Economies {
		m.economies[ec.Player] = ec
	}
	m.audio = append(m.audio, ngs.Audio...)
	m.sprays = ngs.Sprays
}

// Predict dead-reckons every moving entity forward by dt seconds: position
// advances along the last known velocity. Beams don't predict; their
// endpoints snap to wherever the next snapshot puts them.
func (m *Mirror) Predict(dt float64) {
	for _, ent := range m.entities {
		if ent.Kind == game.KindProjectile && ent.Target != 0 {
			continue // live beam, endpoint owned by the server
		}
		ent.PredX += ent.VelX * dt
		ent.PredY += ent.VelY * dt
	}
}

// Entity returns the replicated entity, or false if the id is unknown.
func (m *Mirror) Entity(id uint64) (*MirrorEntity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Entities returns all replicated entities in ascending id order.
func (m *Mirror) Entities() []*MirrorEntity {
	ids := make([]uint64, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*MirrorEntity, len(ids))
	for i, id := range ids {
		out[i] = m.entities[id]
	}
	return out
}

// Economy returns a player's replicated account.
func (m *Mirror) Economy(player int32) (EconomyRecord, bool) {
	ec, ok := m.economies[player]
	return ec, ok
}

// Tick returns the tick of the last applied snapshot.
func (m *Mirror) Tick() uint64 { return m.tick }

// GameOver reports the replicated match result.
func (m *Mirror) GameOver() (int32, bool) {
	return m.winner, m.gameOver
}

// Len returns the replicated entity count.
func (m *Mirror) Len() int { return len(m.entities) }

// DrainAudio returns the cues that arrived since the last drain and clears
// them, mirroring the server's fire-and-forget contract.
func (m *Mirror) DrainAudio() []AudioRecord {
	out := m.audio
	m.audio = nil
	return out
}

// Sprays returns the live spray set from the latest snapshot. It is state,
// not a queue: reading does not consume it, and the next snapshot replaces
// it whole.
func (m *Mirror) Sprays() []SprayRecord { return m.sprays }
