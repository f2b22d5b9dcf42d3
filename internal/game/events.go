package game

import "github.com/steelfront/server/internal/core/ecs"

// Domain events delivered synchronously within the tick that produced them.
// Audio/UI collaborators subscribe on the event bus; nothing is buffered
// across ticks except the per-tick audio batch that rides the snapshot.

// UnitSpawned fires when a factory or scenario creates a unit.
type UnitSpawned struct {
	ID    ecs.EntityID
	Owner PlayerID
	Type  string
	X, Y  float64
}

// UnitDied fires once per entity in the death sweep's batch.
type UnitDied struct {
	ID    ecs.EntityID
	Owner PlayerID
	X, Y  float64
}

// SelectionChanged fires when a view-local select/clear command is applied.
type SelectionChanged struct {
	Player   PlayerID
	Selected []ecs.EntityID
}

// EconomyChanged fires after the economy phase for each player whose
// stockpile moved.
type EconomyChanged struct {
	Player    PlayerID
	Stockpile float64
}

// GameOver fires when exactly one player retains a commander.
type GameOver struct {
	Winner PlayerID
}

// AudioCueKind enumerates the audio events the sim emits.
type AudioCueKind byte

const (
	AudioFire AudioCueKind = iota
	AudioHit
	AudioDeath
	AudioLaserStart
	AudioLaserStop
)

// AudioCue is fire-and-forget: included in exactly one snapshot, then
// dropped, never replayed.
type AudioCue struct {
	Kind   AudioCueKind
	Source ecs.EntityID
	X, Y   float64
}

// SprayTarget is a transient builder→site effect for the renderer, rebuilt
// every tick the builder keeps pouring energy.
type SprayTarget struct {
	Builder ecs.EntityID
	Site    ecs.EntityID
	X, Y    float64
}
