package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPoolRecyclesIndexWithNewGeneration(t *testing.T) {
	p := NewEntityPool()

	a := p.Create()
	require.True(t, p.Alive(a))

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "freed index is reused")
	assert.NotEqual(t, a, b, "reused index carries a bumped generation")
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(a), "stale id never resolves to the recycled entity")
}

func TestEntityPoolDestroyStaleIDIsNoOp(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	b := p.Create()

	// Destroying through the stale handle must not kill the new entity.
	p.Destroy(a)
	assert.True(t, p.Alive(b))

	// Out-of-range ids are ignored too.
	p.Destroy(NewEntityID(999, 0))
}

func TestStoreEachOrderedVisitsAscending(t *testing.T) {
	type tag struct{ n int }
	s := NewStore[tag]()
	p := NewEntityPool()
	var created []EntityID
	for i := 0; i < 50; i++ {
		id := p.Create()
		created = append(created, id)
		s.Set(id, &tag{n: i})
	}

	var seen []EntityID
	s.EachOrdered(func(id EntityID, _ *tag) {
		seen = append(seen, id)
	})
	require.Len(t, seen, 50)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i])
	}
	assert.Equal(t, created, seen, "fresh ids allocate in ascending order")
}

func TestWorldFlushFiltersDuplicateDestroys(t *testing.T) {
	w := NewWorld()
	tags := NewStore[struct{}]()
	w.Registry().Register(tags)

	a := w.CreateEntity()
	b := w.CreateEntity()
	tags.Set(a, &struct{}{})
	tags.Set(b, &struct{}{})

	w.MarkForDestruction(a)
	w.MarkForDestruction(a)
	w.MarkForDestruction(b)
	assert.Len(t, w.PendingDestroy(), 3)

	destroyed := w.FlushDestroyQueue()
	assert.Equal(t, []EntityID{a, b}, destroyed, "duplicate queue entries collapse")
	assert.False(t, w.Alive(a))
	assert.False(t, w.Alive(b))
	assert.Equal(t, 0, tags.Len(), "components removed on destroy")
	assert.Empty(t, w.PendingDestroy())
}

func TestWorldEntitiesStayAliveUntilFlush(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	w.MarkForDestruction(a)
	assert.True(t, w.Alive(a), "marked entities survive until the sweep")
	w.FlushDestroyQueue()
	assert.False(t, w.Alive(a))
}
