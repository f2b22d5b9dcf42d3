package game

import (
	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/data"
)

// PlayerID identifies one player for the lifetime of a match.
type PlayerID int32

// Kind is the coarse entity classification carried on the wire.
type Kind byte

const (
	KindUnit Kind = iota
	KindBuilding
	KindProjectile
)

// Transform mirrors the physics body's position each tick. Systems read it;
// only the physics sync writes it on the host (the mirror writes it from
// snapshots).
type Transform struct {
	X, Y float64
	Rot  float64
}

// ActionKind tags one entry of a unit's action queue.
type ActionKind byte

const (
	ActionMove ActionKind = iota
	ActionPatrol
	ActionFight // attack-move: advance, stop to engage inside fightstop range
	ActionRepair
	ActionBuild
)

// Action is one queued intent for a unit.
type Action struct {
	Kind   ActionKind
	X, Y   float64
	Target ecs.EntityID // repair target; zero otherwise
	TypeID string       // building blueprint id for ActionBuild
}

// Unit is the mobile-entity component.
type Unit struct {
	Type            string // unit blueprint id
	HP, MaxHP       float64
	CollisionRadius float64
	MoveSpeed       float64
	Actions         []Action
	// PatrolAnchor is the start of the current patrol leg so the unit can
	// shuttle back and forth.
	PatrolAnchorX float64
	PatrolAnchorY float64
}

// Building is the static-structure component.
type Building struct {
	Type          string // building blueprint id
	Width, Height float64
	HP, MaxHP     float64
}

// Buildable tracks construction state for anything that starts incomplete.
type Buildable struct {
	Progress float64 // 0..1
	Complete bool
	Ghost    bool // placed but not yet started by a builder
	Cost     float64
	Rate     float64 // max energy drawn per second
}

// Factory queues unit production. Progress pins at 1 while the owner is at
// the unit cap; the queue slot is kept.
type Factory struct {
	Queue     []string // unit blueprint ids, front is in production
	Progress  float64  // 0..1 for the front item
	RallyX    float64
	RallyY    float64
	Waypoints [][2]float64
}

// Weapon is one independent weapon slot. Multiple weapons on an entity share
// nothing; each has its own cooldown, target, and turret state.
type Weapon struct {
	Blueprint    *data.WeaponBlueprint
	CooldownLeft float64
	Target       ecs.EntityID
	TurretAngle  float64
	TurretVel    float64
	SpecialFire  bool
}

// Range returns the weapon's engagement distance for a tier.
func (w *Weapon) Range(tier string, global float64) float64 {
	return w.Blueprint.BaseRange * w.Blueprint.RangeMultiplier(tier, global)
}

// WeaponRack holds an entity's ordered weapon list.
type WeaponRack struct {
	Weapons []*Weapon
}

// Owner assigns an entity to a player.
type Owner struct {
	Player PlayerID
}

// Selectable marks an entity the local view can select. Selection never
// crosses the network as authoritative state.
type Selectable struct {
	Selected bool
}

// Projectile is a traveling body, a live beam, or an area effect in flight.
type Projectile struct {
	Blueprint  *data.ShotBlueprint
	WeaponID   string // weapon blueprint id, for wire round-trips
	VelX, VelY float64
	TimeAlive  float64
	Source     ecs.EntityID          // attribution; may be stale by impact
	Target     ecs.EntityID          // beam endpoint; zero for ballistic
	HitSet     map[ecs.EntityID]bool // entities already damaged by this body
}

// Commander marks the entity whose loss eliminates its player.
type Commander struct{}

// Builder marks a unit that can construct and repair. SprayTarget is the
// entity it is currently pouring energy into, for the renderer's spray
// effect; cleared every tick it is not re-asserted.
type Builder struct {
	SprayTarget ecs.EntityID
}
