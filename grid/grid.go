// Package grid holds the walkability field searched by the astar engine.
package grid

import (
	"math/rand"

	astar "github.com/pdrpinto/astar-grid"
)

// Grid is a row-major field of walkable and blocked cells.
type Grid struct {
	columns, rows int
	blocked       []bool
}

var _ astar.GridView = (*Grid)(nil)

// New creates a fully walkable grid.
func New(columns, rows int) *Grid {
	columns, rows = max(columns, 0), max(rows, 0)
	return &Grid{
		columns: columns,
		rows:    rows,
		blocked: make([]bool, columns*rows),
	}
}

// Random fills a grid where each cell is walkable with probability density:
// 0 blocks everything, 1 leaves the field empty.
func Random(columns, rows int, density float64, rng *rand.Rand) *Grid {
	g := New(columns, rows)
	for i := range g.blocked {
		g.blocked[i] = rng.Float64() >= density
	}
	return g
}

func (g *Grid) Columns() int { return g.columns }
func (g *Grid) Rows() int    { return g.rows }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.columns && y < g.rows
}

// IsWalkable is false for blocked and out-of-bounds cells.
func (g *Grid) IsWalkable(x, y int) bool {
	return g.InBounds(x, y) && !g.blocked[y*g.columns+x]
}

// SetBlocked marks a cell. Out-of-bounds coordinates are ignored.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if g.InBounds(x, y) {
		g.blocked[y*g.columns+x] = blocked
	}
}

// Blocked lists blocked cells in row-major order.
func (g *Grid) Blocked() []astar.Coord {
	var out []astar.Coord
	for i, b := range g.blocked {
		if b {
			out = append(out, astar.Coord{X: i % g.columns, Y: i / g.columns})
		}
	}
	return out
}

// RandomWalkable picks a walkable cell uniformly, skipping any in exclude.
// It reports false when no such cell exists.
func (g *Grid) RandomWalkable(rng *rand.Rand, exclude ...astar.Coord) (astar.Coord, bool) {
	var free []astar.Coord
outer:
	for i, b := range g.blocked {
		if b {
			continue
		}
		c := astar.Coord{X: i % g.columns, Y: i / g.columns}
		for _, e := range exclude {
			if c == e {
				continue outer
			}
		}
		free = append(free, c)
	}
	if len(free) == 0 {
		return astar.Coord{}, false
	}
	return free[rng.Intn(len(free))], true
}
