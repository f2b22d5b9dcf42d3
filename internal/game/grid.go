package game

import (
	"math"
	"sort"

	"github.com/steelfront/server/internal/core/ecs"
)

// gridCellSize is chosen so a typical weapon see-range spans few cells.
const gridCellSize = 64.0

type cellKey struct {
	cx, cy int32
}

func toCell(v float64) int32 {
	return int32(math.Floor(v / gridCellSize))
}

// Grid is a cell-based spatial index over entity positions, used by
// targeting and build placement. Accessed only from the tick body, no locks.
type Grid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
	at    map[ecs.EntityID]cellKey
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		at:    make(map[ecs.EntityID]cellKey),
	}
}

// Upsert places or moves an entity in the grid.
func (g *Grid) Upsert(id ecs.EntityID, x, y float64) {
	k := cellKey{toCell(x), toCell(y)}
	if old, ok := g.at[id]; ok {
		if old == k {
			return
		}
		g.removeFromCell(id, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.at[id] = k
}

// Remove takes an entity out of the grid. Unknown ids are ignored.
func (g *Grid) Remove(id ecs.EntityID) {
	k, ok := g.at[id]
	if !ok {
		return
	}
	g.removeFromCell(id, k)
	delete(g.at, id)
}

func (g *Grid) removeFromCell(id ecs.EntityID, k cellKey) {
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Near returns candidate ids within radius of the point, in ascending id
// order. Cell granularity makes this a superset by up to one cell; callers
// do the fine distance filter against actual positions.
func (g *Grid) Near(x, y, radius float64) []ecs.EntityID {
	minCX, maxCX := toCell(x-radius), toCell(x+radius)
	minCY, maxCY := toCell(y-radius), toCell(y+radius)
	var out []ecs.EntityID
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for id := range g.cells[cellKey{cx, cy}] {
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
