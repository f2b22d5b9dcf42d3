package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/game"
)

func position(t *testing.T, d *Driver, id ecs.EntityID) (float64, float64) {
	t.Helper()
	tr, ok := d.store.Transforms.Get(id)
	require.True(t, ok)
	return tr.X, tr.Y
}

func TestMoveOrderWalksAndPopsOnArrival(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "grunt", 0, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 20, Y: 0})

	// grunt moves at 30/s; 20 units takes under a second.
	runTicks(d, 15)

	x, y := position(t, d, id)
	assert.InDelta(t, 20, x, 5)
	assert.InDelta(t, 0, y, 1)
	u, _ := d.store.Units.Get(id)
	assert.Empty(t, u.Actions, "arrival pops the move")
}

func TestQueuedMovesRunInOrder(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "grunt", 0, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 15, Y: 0})
	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 15, Y: 15, Append: true})

	runTicks(d, 30)

	x, y := position(t, d, id)
	assert.InDelta(t, 15, x, 5)
	assert.InDelta(t, 15, y, 5)
}

func TestUnqueuedOrderReplacesCurrent(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "grunt", 0, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 100, Y: 0})
	runTicks(d, 5)
	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 0, Y: 0})
	runTicks(d, 1)

	u, _ := d.store.Units.Get(id)
	require.Len(t, u.Actions, 1)
	assert.Equal(t, 0.0, u.Actions[0].X)
}

func TestPatrolShuttlesBetweenEndpoints(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "grunt", 0, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdPatrol, Player: 1, Units: []ecs.EntityID{id}, X: 30, Y: 0})

	// Long enough for several legs; the action must never pop.
	var sawFar, sawHome bool
	for i := 0; i < 100; i++ {
		d.Tick(testDt)
		x, _ := position(t, d, id)
		if x > 25 {
			sawFar = true
		}
		if sawFar && x < 8 {
			sawHome = true
		}
	}
	assert.True(t, sawFar, "reached the patrol point")
	assert.True(t, sawHome, "shuttled back toward the anchor")
	u, _ := d.store.Units.Get(id)
	require.Len(t, u.Actions, 1)
	assert.Equal(t, game.ActionPatrol, u.Actions[0].Kind)
}

func TestFightMoveHaltsWhileEngaged(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	id := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	// Hostile sits well inside fightstop range (70 * 0.9 = 63).
	mustSpawnUnit(t, d, 2, "dummy", 30, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdFight, Player: 1, Units: []ecs.EntityID{id}, X: 500, Y: 0})
	runTicks(d, 10)

	x, _ := position(t, d, id)
	assert.Less(t, x, 10.0, "attack-move stops to engage")
	u, _ := d.store.Units.Get(id)
	require.Len(t, u.Actions, 1, "the fight order is held, not popped")
}

func TestBuilderApproachAssignsSprayTarget(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 1000, 2000, 0)

	builder := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	target, err := d.SpawnBuilding(1, "generator", 40, 0)
	require.NoError(t, err)
	b := mustGet(d.store.Buildings, target)
	b.HP = 100 // damaged, worth repairing

	d.queue.Enqueue(game.Command{Type: game.CmdRepair, Player: 1, Units: []ecs.EntityID{builder}, Target: target})
	runTicks(d, 30)

	assert.Greater(t, b.HP, 100.0, "repair energy flows once in reach")
	bx, _ := position(t, d, builder)
	assert.Less(t, bx, 40.0, "builder stops short of the building")
	assert.Greater(t, bx, 10.0, "but walked toward it")
}

func TestImmobileUnitStaysPut(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "dummy", 5, 5)

	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 100, Y: 100})
	runTicks(d, 10)

	x, y := position(t, d, id)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, y)
}

func TestMovementAdvancesBySpeedTimesDelta(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	id := mustSpawnUnit(t, d, 1, "grunt", 0, 0)

	d.queue.Enqueue(game.Command{Type: game.CmdMove, Player: 1, Units: []ecs.EntityID{id}, X: 100, Y: 0})
	d.Tick(testDt)

	// grunt moves at 30/s, so one 100ms tick covers exactly 3 units.
	x, y := position(t, d, id)
	assert.InDelta(t, 3, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestNormalizeAngleWraps(t *testing.T) {
	assert.InDelta(t, 0, normalizeAngle(2*math.Pi), 1e-9)
	assert.InDelta(t, math.Pi, normalizeAngle(-math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi/2, normalizeAngle(3*math.Pi/2), 1e-9)
}
