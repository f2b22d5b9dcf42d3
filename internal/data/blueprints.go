package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ShotKind selects how a weapon's shot manifests in the world.
type ShotKind byte

const (
	ShotBallistic ShotKind = iota // discrete traveling body
	ShotBeam                      // line re-evaluated every tick for its duration
	ShotInstant                   // resolved the tick it fires
	ShotForce                     // area push, no damage body
)

func ParseShotKind(s string) (ShotKind, error) {
	switch s {
	case "ballistic":
		return ShotBallistic, nil
	case "beam":
		return ShotBeam, nil
	case "instant":
		return ShotInstant, nil
	case "force":
		return ShotForce, nil
	default:
		return 0, fmt.Errorf("unknown shot kind %q", s)
	}
}

func (k ShotKind) String() string {
	switch k {
	case ShotBallistic:
		return "ballistic"
	case ShotBeam:
		return "beam"
	case ShotInstant:
		return "instant"
	case ShotForce:
		return "force"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// ShotBlueprint is the static damage/force/lifetime profile a projectile
// carries a reference to. Damage is full within PrimaryRadius and falls off
// linearly to zero at SecondaryRadius.
type ShotBlueprint struct {
	Kind            ShotKind `yaml:"-"`
	KindName        string   `yaml:"kind"`
	Damage          float64  `yaml:"damage"`
	PrimaryRadius   float64  `yaml:"primary_radius"`
	SecondaryRadius float64  `yaml:"secondary_radius"`
	HitForce        float64  `yaml:"hit_force"`
	KnockBackForce  float64  `yaml:"knockback_force"`
	Speed           float64  `yaml:"speed"`
	MaxLifespan     float64  `yaml:"max_lifespan"` // seconds
	SplashOnExpiry  bool     `yaml:"splash_on_expiry"`
	BeamDuration    float64  `yaml:"beam_duration"` // seconds, beam kind only
}

// Range tier names. A weapon's engagement distances are the blueprint's base
// range scaled by a per-tier multiplier: the global default unless the
// blueprint carries an override for that tier.
const (
	TierSee       = "see"
	TierFire      = "fire"
	TierRelease   = "release"
	TierLock      = "lock"
	TierFightStop = "fightstop"
)

// WeaponBlueprint holds static data for one weapon type.
type WeaponBlueprint struct {
	ID              string             `yaml:"id"`
	BaseRange       float64            `yaml:"base_range"`
	Cooldown        float64            `yaml:"cooldown"` // seconds between shots
	TurretTurnAccel float64            `yaml:"turret_turn_accel"`
	TurretDrag      float64            `yaml:"turret_drag"`
	Special         bool               `yaml:"special"` // fires only while special fire is toggled on
	RangeOverrides  map[string]float64 `yaml:"range_multiplier_overrides"`
	Shot            ShotBlueprint      `yaml:"shot"`
}

// RangeMultiplier returns the multiplier for a tier, preferring the
// blueprint's override over the supplied global default.
func (w *WeaponBlueprint) RangeMultiplier(tier string, global float64) float64 {
	if m, ok := w.RangeOverrides[tier]; ok {
		return m
	}
	return global
}

// UnitBlueprint holds static data for one unit type.
type UnitBlueprint struct {
	ID              string   `yaml:"id"`
	MaxHP           float64  `yaml:"max_hp"`
	MoveSpeed       float64  `yaml:"move_speed"`
	CollisionRadius float64  `yaml:"collision_radius"`
	BuildCost       float64  `yaml:"build_cost"` // total energy to produce
	BuildRate       float64  `yaml:"build_rate"` // max energy drawn per second
	Weapons         []string `yaml:"weapons"`    // weapon blueprint ids
	Commander       bool     `yaml:"commander"`
	Builder         bool     `yaml:"builder"`
}

// BuildingBlueprint holds static data for one building type.
type BuildingBlueprint struct {
	ID               string   `yaml:"id"`
	Width            float64  `yaml:"width"`
	Height           float64  `yaml:"height"`
	MaxHP            float64  `yaml:"max_hp"`
	EnergyProduction float64  `yaml:"energy_production"` // per second once complete
	BuildCost        float64  `yaml:"build_cost"`
	BuildRate        float64  `yaml:"build_rate"`
	Factory          bool     `yaml:"factory"`
	Builds           []string `yaml:"builds"` // unit ids this factory can queue
	Weapons          []string `yaml:"weapons"`
}

// CanBuild reports whether the factory's build list includes a unit type.
func (b *BuildingBlueprint) CanBuild(unitID string) bool {
	for _, id := range b.Builds {
		if id == unitID {
			return true
		}
	}
	return false
}

type unitListFile struct {
	Units []UnitBlueprint `yaml:"units"`
}

type buildingListFile struct {
	Buildings []BuildingBlueprint `yaml:"buildings"`
}

type weaponListFile struct {
	Weapons []WeaponBlueprint `yaml:"weapons"`
}

// Table bundles every blueprint table the simulation needs, indexed by id.
type Table struct {
	units     map[string]*UnitBlueprint
	buildings map[string]*BuildingBlueprint
	weapons   map[string]*WeaponBlueprint

	maxBodyRadius float64
}

// LoadTable loads the unit, building, and weapon blueprint files and
// resolves every cross-reference (a unit naming a missing weapon is a load
// error, not a runtime surprise).
func LoadTable(unitPath, buildingPath, weaponPath string) (*Table, error) {
	t := &Table{
		units:     make(map[string]*UnitBlueprint),
		buildings: make(map[string]*BuildingBlueprint),
		weapons:   make(map[string]*WeaponBlueprint),
	}

	var wf weaponListFile
	if err := readYAML(weaponPath, &wf); err != nil {
		return nil, fmt.Errorf("weapon_list: %w", err)
	}
	for i := range wf.Weapons {
		w := &wf.Weapons[i]
		kind, err := ParseShotKind(w.Shot.KindName)
		if err != nil {
			return nil, fmt.Errorf("weapon %s: %w", w.ID, err)
		}
		w.Shot.Kind = kind
		t.weapons[w.ID] = w
	}

	var uf unitListFile
	if err := readYAML(unitPath, &uf); err != nil {
		return nil, fmt.Errorf("unit_list: %w", err)
	}
	for i := range uf.Units {
		u := &uf.Units[i]
		for _, wid := range u.Weapons {
			if _, ok := t.weapons[wid]; !ok {
				return nil, fmt.Errorf("unit %s: unknown weapon %q", u.ID, wid)
			}
		}
		t.units[u.ID] = u
	}

	var bf buildingListFile
	if err := readYAML(buildingPath, &bf); err != nil {
		return nil, fmt.Errorf("building_list: %w", err)
	}
	for i := range bf.Buildings {
		b := &bf.Buildings[i]
		for _, wid := range b.Weapons {
			if _, ok := t.weapons[wid]; !ok {
				return nil, fmt.Errorf("building %s: unknown weapon %q", b.ID, wid)
			}
		}
		for _, uid := range b.Builds {
			if _, ok := t.units[uid]; !ok {
				return nil, fmt.Errorf("building %s: unknown unit %q", b.ID, uid)
			}
		}
		t.buildings[b.ID] = b
	}

	for _, u := range t.units {
		if u.CollisionRadius > t.maxBodyRadius {
			t.maxBodyRadius = u.CollisionRadius
		}
	}
	for _, b := range t.buildings {
		if r := math.Max(b.Width, b.Height) / 2; r > t.maxBodyRadius {
			t.maxBodyRadius = r
		}
	}

	return t, nil
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Unit returns a unit blueprint by id, or nil if not found.
func (t *Table) Unit(id string) *UnitBlueprint { return t.units[id] }

// Building returns a building blueprint by id, or nil if not found.
func (t *Table) Building(id string) *BuildingBlueprint { return t.buildings[id] }

// Weapon returns a weapon blueprint by id, or nil if not found.
func (t *Table) Weapon(id string) *WeaponBlueprint { return t.weapons[id] }

func (t *Table) UnitCount() int     { return len(t.units) }
func (t *Table) BuildingCount() int { return len(t.buildings) }
func (t *Table) WeaponCount() int   { return len(t.weapons) }

// MaxBodyRadius is the largest collision radius any loaded blueprint can
// produce. Broad-phase queries use it as their padding bound.
func (t *Table) MaxBodyRadius() float64 { return t.maxBodyRadius }
