package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weaponsYAML = `
weapons:
  - id: rifle
    base_range: 100.0
    cooldown: 1.5
    shot:
      kind: ballistic
      damage: 25.0
      speed: 120.0
      max_lifespan: 2.0
  - id: zapper
    base_range: 60.0
    cooldown: 4.0
    special: true
    range_multiplier_overrides:
      see: 1.1
    shot:
      kind: beam
      damage: 10.0
      beam_duration: 0.5
`

const unitsYAML = `
units:
  - id: trooper
    max_hp: 120.0
    move_speed: 30.0
    build_cost: 150.0
    build_rate: 75.0
    weapons: [rifle]
`

const buildingsYAML = `
buildings:
  - id: barracks
    width: 20.0
    height: 16.0
    max_hp: 800.0
    build_cost: 400.0
    build_rate: 100.0
    factory: true
    builds: [trooper]
`

func writeTables(t *testing.T, units, buildings, weapons string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	up := filepath.Join(dir, "unit_list.yaml")
	bp := filepath.Join(dir, "building_list.yaml")
	wp := filepath.Join(dir, "weapon_list.yaml")
	require.NoError(t, os.WriteFile(up, []byte(units), 0o644))
	require.NoError(t, os.WriteFile(bp, []byte(buildings), 0o644))
	require.NoError(t, os.WriteFile(wp, []byte(weapons), 0o644))
	return up, bp, wp
}

func TestLoadTableResolvesReferences(t *testing.T) {
	table, err := LoadTable(writeTables(t, unitsYAML, buildingsYAML, weaponsYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, table.UnitCount())
	assert.Equal(t, 1, table.BuildingCount())
	assert.Equal(t, 2, table.WeaponCount())

	rifle := table.Weapon("rifle")
	require.NotNil(t, rifle)
	assert.Equal(t, ShotBallistic, rifle.Shot.Kind)
	assert.Equal(t, 120.0, rifle.Shot.Speed)

	zapper := table.Weapon("zapper")
	require.NotNil(t, zapper)
	assert.Equal(t, ShotBeam, zapper.Shot.Kind)
	assert.True(t, zapper.Special)

	assert.True(t, table.Building("barracks").CanBuild("trooper"))
	assert.False(t, table.Building("barracks").CanBuild("tank"))
	assert.Nil(t, table.Unit("tank"))
}

func TestLoadTableRejectsDanglingWeapon(t *testing.T) {
	badUnits := `
units:
  - id: trooper
    max_hp: 120.0
    weapons: [missing_gun]
`
	_, err := LoadTable(writeTables(t, badUnits, buildingsYAML, weaponsYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_gun")
}

func TestLoadTableRejectsDanglingFactoryUnit(t *testing.T) {
	badBuildings := `
buildings:
  - id: barracks
    factory: true
    builds: [no_such_unit]
`
	_, err := LoadTable(writeTables(t, unitsYAML, badBuildings, weaponsYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_unit")
}

func TestLoadTableRejectsUnknownShotKind(t *testing.T) {
	badWeapons := `
weapons:
  - id: rifle
    shot:
      kind: psychic
`
	_, err := LoadTable(writeTables(t, unitsYAML, buildingsYAML, badWeapons))
	assert.Error(t, err)
}

func TestMaxBodyRadiusCoversLargestBlueprint(t *testing.T) {
	// barracks is 20x16, so its half-extent of 10 dominates the trooper.
	table, err := LoadTable(writeTables(t, unitsYAML, buildingsYAML, weaponsYAML))
	require.NoError(t, err)
	assert.Equal(t, 10.0, table.MaxBodyRadius())

	wideUnits := unitsYAML + `
  - id: colossus
    max_hp: 5000.0
    collision_radius: 24.0
`
	table, err = LoadTable(writeTables(t, wideUnits, buildingsYAML, weaponsYAML))
	require.NoError(t, err)
	assert.Equal(t, 24.0, table.MaxBodyRadius(), "a wider unit raises the bound")
}

func TestRangeMultiplierPrefersOverride(t *testing.T) {
	w := &WeaponBlueprint{
		BaseRange:      100,
		RangeOverrides: map[string]float64{TierSee: 1.1},
	}
	assert.Equal(t, 1.1, w.RangeMultiplier(TierSee, 1.3))
	assert.Equal(t, 1.3, w.RangeMultiplier(TierRelease, 1.3), "no override falls back to the global")
}

func TestLoadScenario(t *testing.T) {
	table, err := LoadTable(writeTables(t, unitsYAML, buildingsYAML, weaponsYAML))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	good := `
name: skirmish
players: [1, 2]
start_stockpile: 500.0
spawns:
  - player: 1
    unit: trooper
    x: 10.0
    y: 20.0
  - player: 2
    building: barracks
    x: 200.0
    y: 200.0
    count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(good), 0o644))

	sc, err := LoadScenario(path, table)
	require.NoError(t, err)
	assert.Equal(t, "skirmish", sc.Name)
	assert.Equal(t, 1, sc.Spawns[0].Count, "zero count defaults to one")
	assert.Equal(t, 2, sc.Spawns[1].Count)

	bad := `
name: broken
spawns:
  - player: 1
    unit: ghost_unit
`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	_, err = LoadScenario(path, table)
	assert.Error(t, err)
}
