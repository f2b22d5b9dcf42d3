package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
)

func weaponOf(t *testing.T, d *Driver, id ecs.EntityID) *game.Weapon {
	t.Helper()
	rack, ok := d.store.Weapons.Get(id)
	require.True(t, ok)
	require.NotEmpty(t, rack.Weapons)
	return rack.Weapons[0]
}

// teleport moves a unit's physics body; the next movement phase syncs the
// transform from it.
func teleport(d *Driver, id ecs.EntityID, x, y float64) {
	u, _ := d.store.Units.Get(id)
	d.phys.CreateBody(id, x, y, u.CollisionRadius)
}

func TestTargetingPrefersNearestHostile(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	far := mustSpawnUnit(t, d, 2, "dummy", 50, 0)
	near := mustSpawnUnit(t, d, 2, "dummy", 30, 0)

	d.Tick(testDt)

	w := weaponOf(t, d, shooter)
	assert.Equal(t, near, w.Target)
	_ = far
}

func TestTargetingTieBreaksOnLowerID(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	left := mustSpawnUnit(t, d, 2, "dummy", -30, 0)
	right := mustSpawnUnit(t, d, 2, "dummy", 30, 0)
	require.Less(t, left, right)

	d.Tick(testDt)

	w := weaponOf(t, d, shooter)
	assert.Equal(t, left, w.Target, "equidistant candidates resolve to the lower id")
}

func TestTargetingSeenButOutOfFireRangeNoLock(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	// blaster: fire range 70, see range 91. At 80 the dummy is visible but
	// not lockable.
	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	mustSpawnUnit(t, d, 2, "dummy", 80, 0)

	d.Tick(testDt)

	w := weaponOf(t, d, shooter)
	assert.True(t, w.Target.IsZero())
}

func TestTargetingLockBandHoldsFireUntilInRange(t *testing.T) {
	// Widen the lock band past fire range: the weapon commits to a target
	// it cannot shoot yet.
	d := newTestDriver(t, Params{RangeMultipliers: map[string]float64{
		data.TierSee:       1.3,
		data.TierFire:      1.0,
		data.TierRelease:   1.3,
		data.TierLock:      1.2,
		data.TierFightStop: 0.9,
	}})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	// blaster: fire 70, lock 84. At 80 the dummy is lockable but unhittable.
	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	victim := mustSpawnUnit(t, d, 2, "dummy", 80, 0)

	runTicks(d, 10)

	w := weaponOf(t, d, shooter)
	assert.Equal(t, victim, w.Target, "lock band commits outside fire range")
	assert.Equal(t, 1000.0, unitHP(t, d, victim), "fire range still gates the shot")
}

func TestTargetingDropsTargetBeyondReleaseRange(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	victim := mustSpawnUnit(t, d, 2, "dummy", 30, 0)

	d.Tick(testDt)
	w := weaponOf(t, d, shooter)
	require.Equal(t, victim, w.Target)

	// Past release range (70 * 1.15 = 80.5) the lock lets go.
	teleport(d, victim, 200, 0)
	d.Tick(testDt)
	d.Tick(testDt)
	assert.True(t, w.Target.IsZero())
}

func TestTargetingDropsDeadTarget(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	victim := mustSpawnUnit(t, d, 2, "dummy", 30, 0)

	d.Tick(testDt)
	w := weaponOf(t, d, shooter)
	require.Equal(t, victim, w.Target)

	d.store.MarkDead(victim)
	d.Tick(testDt)
	d.Tick(testDt)
	assert.True(t, w.Target.IsZero())
}

func TestIncompleteBuildingDoesNotAcquire(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 500, 1000, 0)
	d.ledger.AddPlayer(2, 0, 1000, 0)

	site, err := d.placeBuildingSite(1, "turret", 0, 0)
	require.NoError(t, err)
	mustSpawnUnit(t, d, 2, "dummy", 20, 0)

	d.Tick(testDt)

	w := weaponOf(t, d, site)
	assert.True(t, w.Target.IsZero(), "a construction site holds its fire")
}

func TestTargetingNeverLocksFriendlies(t *testing.T) {
	d := newTestDriver(t, Params{})
	d.ledger.AddPlayer(1, 0, 1000, 0)

	shooter := mustSpawnUnit(t, d, 1, "commander", 0, 0)
	mustSpawnUnit(t, d, 1, "dummy", 20, 0)

	d.Tick(testDt)
	w := weaponOf(t, d, shooter)
	assert.True(t, w.Target.IsZero())
}
