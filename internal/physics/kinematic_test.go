package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelfront/server/internal/core/ecs"
)

func TestKinematicIntegratesVelocity(t *testing.T) {
	k := NewKinematic()
	id := ecs.NewEntityID(1, 0)
	k.CreateBody(id, 0, 0, 2)
	k.SetVelocity(id, 10, -5)

	k.Step(0.5)

	st, ok := k.State(id)
	require.True(t, ok)
	assert.InDelta(t, 5, st.X, 1e-9)
	assert.InDelta(t, -2.5, st.Y, 1e-9)
	assert.InDelta(t, math.Atan2(-5, 10), st.Rot, 1e-9)
}

func TestKinematicImpulseDecays(t *testing.T) {
	k := NewKinematic()
	id := ecs.NewEntityID(1, 0)
	k.CreateBody(id, 0, 0, 2)
	k.ApplyForce(id, 100, 0)

	st, _ := k.State(id)
	initial := st.VelX
	require.Equal(t, 100.0, initial)

	for i := 0; i < 20; i++ {
		k.Step(0.1)
	}
	st, _ = k.State(id)
	assert.Less(t, st.VelX, initial*0.01, "impulse bleeds off over two seconds")
	assert.Greater(t, st.X, 0.0, "the shove still moved the body")
}

func TestKinematicRejectsNonFiniteInput(t *testing.T) {
	k := NewKinematic()
	id := ecs.NewEntityID(1, 0)
	k.CreateBody(id, 1, 2, 2)

	k.SetVelocity(id, math.NaN(), 0)
	k.SetVelocity(id, math.Inf(1), 0)
	k.ApplyForce(id, math.NaN(), math.NaN())
	k.Step(1)

	st, _ := k.State(id)
	assert.Equal(t, 1.0, st.X, "poisoned input never reaches the body")
	assert.Equal(t, 2.0, st.Y)
}

func TestKinematicRemoveBodyReleasesHandle(t *testing.T) {
	k := NewKinematic()
	id := ecs.NewEntityID(1, 0)
	k.CreateBody(id, 0, 0, 2)
	require.Equal(t, 1, k.BodyCount())

	k.RemoveBody(id)
	assert.Equal(t, 0, k.BodyCount())
	_, ok := k.State(id)
	assert.False(t, ok)

	// Operations on a released handle are no-ops, not panics.
	k.SetVelocity(id, 1, 1)
	k.ApplyForce(id, 1, 1)
	k.RemoveBody(id)
}
