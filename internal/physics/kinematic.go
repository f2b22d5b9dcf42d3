package physics

import (
	"math"

	"github.com/steelfront/server/internal/core/ecs"
)

// Kinematic is the reference Engine: point bodies integrated with simple
// impulse decay, no collision response. The host and the tests use it; a
// production deployment can swap in a full rigid-body engine behind the
// same interface.
type Kinematic struct {
	bodies map[ecs.EntityID]*kinematicBody
	// ImpulseDamping is the fraction of accumulated impulse velocity kept
	// per second; the remainder bleeds off.
	ImpulseDamping float64
}

type kinematicBody struct {
	x, y   float64
	rot    float64
	radius float64
	velX   float64 // commanded velocity
	velY   float64
	impX   float64 // impulse-derived velocity, decays over time
	impY   float64
}

func NewKinematic() *Kinematic {
	return &Kinematic{
		bodies:         make(map[ecs.EntityID]*kinematicBody, 256),
		ImpulseDamping: 0.05,
	}
}

func (k *Kinematic) CreateBody(id ecs.EntityID, x, y, radius float64) {
	k.bodies[id] = &kinematicBody{x: x, y: y, radius: radius}
}

func (k *Kinematic) RemoveBody(id ecs.EntityID) {
	delete(k.bodies, id)
}

func (k *Kinematic) BodyCount() int { return len(k.bodies) }

func (k *Kinematic) SetVelocity(id ecs.EntityID, vx, vy float64) {
	b, ok := k.bodies[id]
	if !ok {
		return
	}
	if !finite(vx) || !finite(vy) {
		return
	}
	b.velX = vx
	b.velY = vy
}

func (k *Kinematic) ApplyForce(id ecs.EntityID, fx, fy float64) {
	b, ok := k.bodies[id]
	if !ok {
		return
	}
	if !finite(fx) || !finite(fy) {
		return
	}
	b.impX += fx
	b.impY += fy
}

func (k *Kinematic) Step(dt float64) {
	decay := math.Pow(k.ImpulseDamping, dt)
	for _, b := range k.bodies {
		vx := b.velX + b.impX
		vy := b.velY + b.impY
		b.x += vx * dt
		b.y += vy * dt
		if vx != 0 || vy != 0 {
			b.rot = math.Atan2(vy, vx)
		}
		b.impX *= decay
		b.impY *= decay
	}
}

func (k *Kinematic) State(id ecs.EntityID) (BodyState, bool) {
	b, ok := k.bodies[id]
	if !ok {
		return BodyState{}, false
	}
	return BodyState{
		X: b.x, Y: b.y, Rot: b.rot,
		VelX: b.velX + b.impX,
		VelY: b.velY + b.impY,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
