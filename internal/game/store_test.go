package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelfront/server/internal/core/ecs"
	"github.com/steelfront/server/internal/physics"
)

func TestStoreFlushDeadReleasesBodyAndGrid(t *testing.T) {
	phys := physics.NewKinematic()
	s := NewStore(phys)

	id := s.Create()
	s.Units.Set(id, &Unit{Type: "grunt", HP: 10, MaxHP: 10, CollisionRadius: 2})
	phys.CreateBody(id, 5, 5, 2)
	s.Place(id, 5, 5, 0)
	require.Contains(t, s.Near(5, 5, 10), id)
	require.Equal(t, 1, phys.BodyCount())

	s.MarkDead(id)
	assert.True(t, s.Alive(id), "marked entities live until the sweep")

	removed := s.FlushDead()
	require.Len(t, removed, 1)
	assert.False(t, s.Alive(id))
	assert.Equal(t, 0, phys.BodyCount(), "physics body released on destroy")
	assert.Empty(t, s.Near(5, 5, 10), "spatial index entry released")
	assert.False(t, s.Units.Has(id), "components removed")
}

func TestStoreMarkDeadTwiceRemovesOnce(t *testing.T) {
	phys := physics.NewKinematic()
	s := NewStore(phys)

	id := s.Create()
	s.Units.Set(id, &Unit{})
	s.MarkDead(id)
	s.MarkDead(id)

	removed := s.FlushDead()
	assert.Len(t, removed, 1)
}

func TestStoreCountsByOwnerAndKind(t *testing.T) {
	phys := physics.NewKinematic()
	s := NewStore(phys)

	u1 := s.Create()
	s.Units.Set(u1, &Unit{})
	s.Owners.Set(u1, &Owner{Player: 1})
	s.Commanders.Set(u1, &Commander{})

	u2 := s.Create()
	s.Units.Set(u2, &Unit{})
	s.Owners.Set(u2, &Owner{Player: 1})

	b := s.Create()
	s.Buildings.Set(b, &Building{})
	s.Owners.Set(b, &Owner{Player: 1})

	assert.Equal(t, 2, s.UnitCount(1), "buildings don't count toward the unit cap")
	assert.Equal(t, 1, s.CommanderCount(1))
	assert.Equal(t, 0, s.UnitCount(2))

	kind, ok := s.KindOf(b)
	require.True(t, ok)
	assert.Equal(t, KindBuilding, kind)
	_, ok = s.KindOf(ecs.NewEntityID(999, 0))
	assert.False(t, ok)
}

func TestStoreStaleIDMissesAfterReuse(t *testing.T) {
	phys := physics.NewKinematic()
	s := NewStore(phys)

	old := s.Create()
	s.Units.Set(old, &Unit{})
	s.MarkDead(old)
	s.FlushDead()

	fresh := s.Create()
	s.Units.Set(fresh, &Unit{})

	assert.False(t, s.Alive(old), "stale generation never resolves")
	assert.True(t, s.Alive(fresh))
	_, ok := s.Units.Get(old)
	assert.False(t, ok)
}
