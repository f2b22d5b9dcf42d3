package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steelfront/server/internal/core/ecs"
)

func TestGridNearReturnsCandidatesInRange(t *testing.T) {
	g := NewGrid()
	a := ecs.NewEntityID(1, 0)
	b := ecs.NewEntityID(2, 0)
	c := ecs.NewEntityID(3, 0)
	g.Upsert(a, 10, 10)
	g.Upsert(b, 40, 10)
	g.Upsert(c, 500, 500)

	got := g.Near(0, 0, 64)
	assert.Contains(t, got, a)
	assert.Contains(t, got, b)
	assert.NotContains(t, got, c)

	// Candidates come back sorted for deterministic iteration.
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestGridUpsertMovesBetweenCells(t *testing.T) {
	g := NewGrid()
	a := ecs.NewEntityID(1, 0)
	g.Upsert(a, 10, 10)
	g.Upsert(a, 1000, 1000)

	assert.NotContains(t, g.Near(0, 0, 100), a)
	assert.Contains(t, g.Near(1000, 1000, 10), a)
}

func TestGridRemove(t *testing.T) {
	g := NewGrid()
	a := ecs.NewEntityID(1, 0)
	g.Upsert(a, 10, 10)
	g.Remove(a)
	assert.Empty(t, g.Near(10, 10, 50))

	// Removing twice or removing an unknown id is fine.
	g.Remove(a)
	g.Remove(ecs.NewEntityID(42, 3))
}
