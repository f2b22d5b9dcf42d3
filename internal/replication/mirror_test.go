package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/physics"
)

func snapshotAt(tick uint64, entities ...EntityRecord) *NetworkGameState {
	return &NetworkGameState{Tick: tick, Entities: entities}
}

func TestMirrorCreatesUpdatesAndTearsDown(t *testing.T) {
	m := NewMirror(nil)

	m.Apply(snapshotAt(10,
		EntityRecord{ID: 1, Kind: game.KindUnit, X: 5, HP: 100},
		EntityRecord{ID: 2, Kind: game.KindBuilding, X: 50},
	))
	require.Equal(t, 2, m.Len())

	// Update one, drop the other, introduce a third.
	m.Apply(snapshotAt(12,
		EntityRecord{ID: 1, Kind: game.KindUnit, X: 8, HP: 80},
		EntityRecord{ID: 3, Kind: game.KindProjectile, X: 20},
	))
	assert.Equal(t, 2, m.Len())

	e1, ok := m.Entity(1)
	require.True(t, ok)
	assert.Equal(t, 8.0, e1.X)
	assert.Equal(t, 80.0, e1.HP)

	_, ok = m.Entity(2)
	assert.False(t, ok, "absence in a full snapshot means death")
	_, ok = m.Entity(3)
	assert.True(t, ok)
}

func TestMirrorDropsOutOfOrderSnapshots(t *testing.T) {
	m := NewMirror(nil)
	m.Apply(snapshotAt(20, EntityRecord{ID: 1, X: 100}))

	// A late snapshot from an earlier tick changes nothing.
	m.Apply(snapshotAt(15, EntityRecord{ID: 1, X: 0}, EntityRecord{ID: 9}))
	assert.Equal(t, uint64(20), m.Tick())
	assert.Equal(t, 1, m.Len())
	e, _ := m.Entity(1)
	assert.Equal(t, 100.0, e.X)

	// Same tick twice is also stale.
	m.Apply(snapshotAt(20, EntityRecord{ID: 1, X: 0}))
	e, _ = m.Entity(1)
	assert.Equal(t, 100.0, e.X)
}

func TestMirrorPredictAdvancesByVelocity(t *testing.T) {
	m := NewMirror(nil)
	m.Apply(snapshotAt(5,
		EntityRecord{ID: 1, Kind: game.KindUnit, X: 10, Y: 20, VelX: 4, VelY: -2},
		EntityRecord{ID: 2, Kind: game.KindProjectile, X: 0, Y: 0, VelX: 100, VelY: 0},
		EntityRecord{ID: 3, Kind: game.KindProjectile, X: 50, Y: 50, Target: 1}, // live beam
	))

	m.Predict(0.5)

	unit, _ := m.Entity(1)
	assert.Equal(t, 12.0, unit.PredX)
	assert.Equal(t, 19.0, unit.PredY)
	assert.Equal(t, 10.0, unit.X, "authoritative position untouched")

	shell, _ := m.Entity(2)
	assert.Equal(t, 50.0, shell.PredX)

	beam, _ := m.Entity(3)
	assert.Equal(t, 50.0, beam.PredX, "beams never dead-reckon")

	// The next snapshot wins over any prediction.
	m.Apply(snapshotAt(6, EntityRecord{ID: 1, Kind: game.KindUnit, X: 11, Y: 21, VelX: 4, VelY: -2}))
	unit, _ = m.Entity(1)
	assert.Equal(t, 11.0, unit.PredX)
	assert.Equal(t, 21.0, unit.PredY)
}

func TestMirrorEntitiesSortedAndEconomyMerged(t *testing.T) {
	m := NewMirror(nil)
	m.Apply(&NetworkGameState{
		Tick:     3,
		Entities: []EntityRecord{{ID: 9}, {ID: 1}, {ID: 4}},
		Economies: []EconomyRecord{
			{Player: 1, Stockpile: 200},
		},
	})

	ents := m.Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, uint64(1), ents[0].ID)
	assert.Equal(t, uint64(4), ents[1].ID)
	assert.Equal(t, uint64(9), ents[2].ID)

	ec, ok := m.Economy(1)
	require.True(t, ok)
	assert.Equal(t, 200.0, ec.Stockpile)
	_, ok = m.Economy(2)
	assert.False(t, ok)
}

func TestMirrorAudioDrainsOnce(t *testing.T) {
	m := NewMirror(nil)
	m.Apply(&NetworkGameState{
		Tick:  1,
		Audio: []AudioRecord{{Kind: game.AudioFire, Source: 1}},
	})
	m.Apply(&NetworkGameState{
		Tick:  2,
		Audio: []AudioRecord{{Kind: game.AudioDeath, Source: 2}},
	})

	cues := m.DrainAudio()
	require.Len(t, cues, 2, "cues accumulate until drained")
	assert.Empty(t, m.DrainAudio())
}

func TestMirrorManagesClientBodies(t *testing.T) {
	phys := physics.NewKinematic()
	m := NewMirror(phys)

	m.Apply(snapshotAt(1,
		EntityRecord{ID: 1, Kind: game.KindUnit, X: 5, Y: 5, Radius: 2},
		EntityRecord{ID: 2, Kind: game.KindBuilding, X: 50, Y: 50, Radius: 6},
	))
	require.Equal(t, 2, phys.BodyCount(), "first sight requests a body")
	bs, ok := phys.State(1)
	require.True(t, ok)
	assert.Equal(t, 5.0, bs.X)

	// Re-seeing the same ids must not leak extra bodies.
	m.Apply(snapshotAt(2,
		EntityRecord{ID: 1, Kind: game.KindUnit, X: 8, Y: 5, Radius: 2},
		EntityRecord{ID: 2, Kind: game.KindBuilding, X: 50, Y: 50, Radius: 6},
	))
	assert.Equal(t, 2, phys.BodyCount())

	// Vanished ids release their bodies.
	m.Apply(snapshotAt(3, EntityRecord{ID: 2, Kind: game.KindBuilding, X: 50, Y: 50, Radius: 6}))
	assert.Equal(t, 1, phys.BodyCount(), "teardown releases the body")
	_, ok = phys.State(1)
	assert.False(t, ok)
}

func TestMirrorBeamStopHookOnVanishedBeam(t *testing.T) {
	m := NewMirror(nil)
	var stopped []uint64
	m.OnBeamStop(func(id uint64) { stopped = append(stopped, id) })

	m.Apply(snapshotAt(1,
		EntityRecord{ID: 3, Kind: game.KindProjectile, Target: 1}, // live beam
		EntityRecord{ID: 4, Kind: game.KindProjectile},            // ballistic shell
		EntityRecord{ID: 5, Kind: game.KindUnit},
	))
	m.Apply(snapshotAt(2, EntityRecord{ID: 5, Kind: game.KindUnit}))

	assert.Equal(t, []uint64{3}, stopped, "only the beam triggers the hook")
}

func TestMirrorSpraysReplacedWholesale(t *testing.T) {
	m := NewMirror(nil)
	m.Apply(&NetworkGameState{
		Tick:   1,
		Sprays: []SprayRecord{{Builder: 1, Site: 2, X: 10, Y: 10}},
	})
	require.Len(t, m.Sprays(), 1)
	require.Len(t, m.Sprays(), 1, "reading sprays does not consume them")

	m.Apply(&NetworkGameState{
		Tick: 2,
		Sprays: []SprayRecord{
			{Builder: 1, Site: 2, X: 10, Y: 10},
			{Builder: 3, Site: 2, X: 10, Y: 10},
		},
	})
	assert.Len(t, m.Sprays(), 2)

	m.Apply(&NetworkGameState{Tick: 3})
	assert.Empty(t, m.Sprays(), "a snapshot with no sprays clears the set")
}

func TestMirrorGameOver(t *testing.T) {
	m := NewMirror(nil)
	_, over := m.GameOver()
	assert.False(t, over)

	m.Apply(&NetworkGameState{Tick: 1, GameOver: true, Winner: 2})
	winner, over := m.GameOver()
	assert.True(t, over)
	assert.Equal(t, int32(2), winner)
}
