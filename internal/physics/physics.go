// Package physics defines the boundary to the rigid-body collaborator. The
// simulation core only ever supplies desired velocities and forces; the
// engine owns the bodies and advances positions. Removing an entity must
// release its paired body: a dangling handle is a correctness bug, since a
// recycled body would move an unrelated entity.
package physics

import "github.com/steelfront/server/internal/core/ecs"

// BodyState is what the engine reports back for one body each tick.
type BodyState struct {
	X, Y float64
	Rot  float64
	VelX float64
	VelY float64
}

// Engine is implemented by the physics collaborator.
type Engine interface {
	// CreateBody registers a circular body for the entity at a position.
	CreateBody(id ecs.EntityID, x, y, radius float64)
	// RemoveBody releases the entity's body. Unknown ids are ignored.
	RemoveBody(id ecs.EntityID)
	// SetVelocity sets the body's desired velocity for the next step.
	SetVelocity(id ecs.EntityID, vx, vy float64)
	// ApplyForce applies an impulse (hit force, knockback) to the body.
	ApplyForce(id ecs.EntityID, fx, fy float64)
	// Step advances all bodies by dt seconds.
	Step(dt float64)
	// State reports a body's position/rotation/velocity.
	State(id ecs.EntityID) (BodyState, bool)
}
