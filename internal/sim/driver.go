// Package sim is the authoritative tick engine: it drains the command
// queue, resolves combat and economy against the entity store in a fixed
// phase order, and emits the tick's domain events. One Driver advances one
// match; all mutation happens inside Tick on a single goroutine.
package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/core/event"
	coresys "github.com/steelfront/server/internal/core/system"
	"github.com/steelfront/server/internal/data"
	"github.com/steelfront/server/internal/game"
	"github.com/steelfront/server/internal/physics"
	"github.com/steelfront/server/internal/scripting"
)

// State is the driver's position in the tick cycle, for diagnostics.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateResolving
	StateEmitting
)

// Params are the match rules.
type Params struct {
	UnitCap          int
	RangeMultipliers map[string]float64 // per-tier global defaults
	Perpetual        bool               // skip the win check (sandbox mode)
	Seed             int64              // seeds any stochastic tie-break
}

// DefaultRangeMultipliers mirror the classic tier spread: awareness past
// fire range, a release band so targets don't flicker, and a fightstop
// band slightly inside fire range.
func DefaultRangeMultipliers() map[string]float64 {
	return map[string]float64{
		data.TierSee:       1.3,
		data.TierFire:      1.0,
		data.TierRelease:   1.15,
		data.TierLock:      1.0,
		data.TierFightStop: 0.9,
	}
}

// Deps are the explicitly constructed services a Driver needs. Lifecycle is
// owned by the match session, never the process.
type Deps struct {
	Store   *game.Store
	Queue   *game.CommandQueue
	Ledger  *game.Ledger
	Table   *data.Table
	Bus     *event.Bus
	Physics physics.Engine
	Scripts *scripting.Engine // nil → built-in formulas
	Log     *zap.Logger
}

// Driver orchestrates the per-tick phase order and owns the per-tick
// transient batches (audio cues, spray targets).
type Driver struct {
	store   *game.Store
	queue   *game.CommandQueue
	ledger  *game.Ledger
	table   *data.Table
	bus     *event.Bus
	phys    physics.Engine
	scripts *scripting.Engine
	log     *zap.Logger
	runner  *coresys.Runner
	rng     *rand.Rand
	params  Params

	tick     uint64
	state    State
	audio    []game.AudioCue
	sprays   []game.SprayTarget
	winner   game.PlayerID
	gameOver bool
}

func NewDriver(deps Deps, params Params) *Driver {
	if params.RangeMultipliers == nil {
		params.RangeMultipliers = DefaultRangeMultipliers()
	}
	if params.UnitCap <= 0 {
		params.UnitCap = 200
	}
	d := &Driver{
		store:   deps.Store,
		queue:   deps.Queue,
		ledger:  deps.Ledger,
		table:   deps.Table,
		bus:     deps.Bus,
		phys:    deps.Physics,
		scripts: deps.Scripts,
		log:     deps.Log,
		runner:  coresys.NewRunner(),
		rng:     rand.New(rand.NewSource(params.Seed)),
		params:  params,
	}
	d.runner.Register(&drainSystem{d})
	d.runner.Register(&movementSystem{d})
	d.runner.Register(&turretSystem{d})
	d.runner.Register(&targetingSystem{d})
	d.runner.Register(&firingSystem{d})
	d.runner.Register(&projectileSystem{d})
	d.runner.Register(&economySystem{d})
	d.runner.Register(&completionSystem{d})
	d.runner.Register(&deathSystem{d})
	d.runner.Register(&winSystem{d})
	return d
}

func (d *Driver) Store() *game.Store   { return d.store }
func (d *Driver) Ledger() *game.Ledger { return d.ledger }
func (d *Driver) Table() *data.Table   { return d.table }
func (d *Driver) TickCount() uint64    { return d.tick }
func (d *Driver) State() State         { return d.state }

// Winner reports the game-over result, if the match has ended.
func (d *Driver) Winner() (game.PlayerID, bool) {
	return d.winner, d.gameOver
}

// Tick advances the match by dt. Variable delta time; the phase order never
// varies.
func (d *Driver) Tick(dt time.Duration) {
	d.tick++
	d.state = StateDraining
	d.sprays = d.sprays[:0]
	d.runner.Tick(dt)
	d.state = StateIdle
}

// DrainAudio returns this tick's audio batch and clears it. Audio events are
// fire and forget: they ride exactly one snapshot and are never replayed.
func (d *Driver) DrainAudio() []game.AudioCue {
	out := d.audio
	d.audio = nil
	return out
}

// Sprays returns the builder spray effects active this tick.
func (d *Driver) Sprays() []game.SprayTarget {
	return d.sprays
}

func (d *Driver) emitAudio(kind game.AudioCueKind, src ecs.EntityID, x, y float64) {
	d.audio = append(d.audio, game.AudioCue{Kind: kind, Source: src, X: x, Y: y})
}

// ── Spawning ───────────────────────────────────────────────────────

// SpawnUnit creates a complete unit with its physics body.
func (d *Driver) SpawnUnit(p game.PlayerID, typeID string, x, y float64) (ecs.EntityID, error) {
	bp := d.table.Unit(typeID)
	if bp == nil {
		return 0, fmt.Errorf("unknown unit type %q", typeID)
	}
	id := d.store.Create()
	d.store.Units.Set(id, &game.Unit{
		Type:            bp.ID,
		HP:              bp.MaxHP,
		MaxHP:           bp.MaxHP,
		CollisionRadius: bp.CollisionRadius,
		MoveSpeed:       bp.MoveSpeed,
	})
	d.store.Owners.Set(id, &game.Owner{Player: p})
	d.store.Selectables.Set(id, &game.Selectable{})
	if bp.Commander {
		d.store.Commanders.Set(id, &game.Commander{})
	}
	if bp.Builder {
		d.store.Builders.Set(id, &game.Builder{})
	}
	d.attachWeapons(id, bp.Weapons)
	d.phys.CreateBody(id, x, y, bp.CollisionRadius)
	d.store.Place(id, x, y, 0)
	event.Emit(d.bus, game.UnitSpawned{ID: id, Owner: p, Type: bp.ID, X: x, Y: y})
	return id, nil
}

// SpawnBuilding creates a complete building (scenario start, debug).
func (d *Driver) SpawnBuilding(p game.PlayerID, typeID string, x, y float64) (ecs.EntityID, error) {
	id, err := d.placeBuildingSite(p, typeID, x, y)
	if err != nil {
		return 0, err
	}
	b := mustGet(d.store.Buildings, id)
	bd := mustGet(d.store.Buildables, id)
	bd.Ghost = false
	bd.Progress = 1
	bd.Complete = true
	b.HP = b.MaxHP
	return id, nil
}

// placeBuildingSite creates a ghost construction site at a position.
func (d *Driver) placeBuildingSite(p game.PlayerID, typeID string, x, y float64) (ecs.EntityID, error) {
	bp := d.table.Building(typeID)
	if bp == nil {
		return 0, fmt.Errorf("unknown building type %q", typeID)
	}
	id := d.store.Create()
	d.store.Buildings.Set(id, &game.Building{
		Type:   bp.ID,
		Width:  bp.Width,
		Height: bp.Height,
		HP:     1,
		MaxHP:  bp.MaxHP,
	})
	d.store.Buildables.Set(id, &game.Buildable{
		Ghost: true,
		Cost:  bp.BuildCost,
		Rate:  bp.BuildRate,
	})
	if bp.Factory {
		d.store.Factories.Set(id, &game.Factory{RallyX: x, RallyY: y + bp.Height})
	}
	d.store.Owners.Set(id, &game.Owner{Player: p})
	d.store.Selectables.Set(id, &game.Selectable{})
	d.attachWeapons(id, bp.Weapons)
	d.store.Place(id, x, y, 0)
	return id, nil
}

func (d *Driver) attachWeapons(id ecs.EntityID, weaponIDs []string) {
	if len(weaponIDs) == 0 {
		return
	}
	rack := &game.WeaponRack{Weapons: make([]*game.Weapon, 0, len(weaponIDs))}
	for _, wid := range weaponIDs {
		bp := d.table.Weapon(wid)
		if bp == nil {
			continue // cross-references are validated at table load
		}
		rack.Weapons = append(rack.Weapons, &game.Weapon{Blueprint: bp})
	}
	d.store.Weapons.Set(id, rack)
}

// ApplyScenario spawns the scenario's starting entities and registers its
// players on the ledger.
func (d *Driver) ApplyScenario(sc *data.Scenario, maxStockpile, baseIncome float64) error {
	for _, p := range sc.Players {
		d.ledger.AddPlayer(game.PlayerID(p), sc.StartStockpile, maxStockpile, baseIncome)
	}
	for _, sp := range sc.Spawns {
		for i := 0; i < sp.Count; i++ {
			// Fan multiple spawns out so bodies don't stack on one point.
			x := sp.X + float64(i%10)*4
			y := sp.Y + float64(i/10)*4
			var err error
			if sp.Unit != "" {
				_, err = d.SpawnUnit(game.PlayerID(sp.Player), sp.Unit, x, y)
			} else {
				_, err = d.SpawnBuilding(game.PlayerID(sp.Player), sp.Building, x, y)
			}
			if err != nil {
				return fmt.Errorf("scenario spawn: %w", err)
			}
		}
	}
	if d.scripts != nil {
		d.scripts.OnMatchStart(sc.Name)
	}
	return nil
}

// rangeMult looks up the global multiplier for a tier.
func (d *Driver) rangeMult(tier string) float64 {
	if m, ok := d.params.RangeMultipliers[tier]; ok {
		return m
	}
	return 1.0
}

// hostile reports whether b is a valid combat target for a's owner:
// a live, owned, non-projectile entity of a different player.
func (d *Driver) hostile(attacker game.PlayerID, id ecs.EntityID) bool {
	if !d.store.Alive(id) || d.store.Projectiles.Has(id) {
		return false
	}
	owner, ok := d.store.OwnerOf(id)
	if !ok {
		return false
	}
	return owner != attacker
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mustGet[T any](s *ecs.Store[T], id ecs.EntityID) *T {
	v, _ := s.Get(id)
	return v
}
