package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	astar "github.com/pdrpinto/astar-grid"
)

// Cell symbols used by Parse and Render.
const (
	SymbolOpen    = '.'
	SymbolBlocked = '#'
	SymbolStart   = 'S'
	SymbolGoal    = 'G'
	SymbolPath    = '*'
)

var (
	ErrEmptyLayout   = errors.New("empty grid layout")
	ErrRaggedLayout  = errors.New("grid rows differ in length")
	ErrUnknownSymbol = errors.New("unknown grid symbol")
	ErrDuplicateMark = errors.New("duplicate start or goal marker")
)

// Layout is a parsed ASCII grid with its optional start and goal markers.
type Layout struct {
	Grid  *Grid
	Start *astar.Coord
	Goal  *astar.Coord
}

// Parse reads a layout such as
//
//	S..#
//	.#..
//	...G
//
// Blank lines and surrounding whitespace are ignored. Start and goal cells
// are walkable.
func Parse(r io.Reader) (Layout, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	if len(lines) == 0 {
		return Layout{}, ErrEmptyLayout
	}

	columns := len(lines[0])
	layout := Layout{Grid: New(columns, len(lines))}
	for y, line := range lines {
		if len(line) != columns {
			return Layout{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedLayout, y, len(line), columns)
		}
		for x := 0; x < columns; x++ {
			c := astar.Coord{X: x, Y: y}
			switch line[x] {
			case SymbolOpen:
			case SymbolBlocked:
				layout.Grid.SetBlocked(x, y, true)
			case SymbolStart:
				if layout.Start != nil {
					return Layout{}, fmt.Errorf("%w: %c at %v", ErrDuplicateMark, SymbolStart, c)
				}
				layout.Start = &c
			case SymbolGoal:
				if layout.Goal != nil {
					return Layout{}, fmt.Errorf("%w: %c at %v", ErrDuplicateMark, SymbolGoal, c)
				}
				layout.Goal = &c
			default:
				return Layout{}, fmt.Errorf("%w: %q at %v", ErrUnknownSymbol, line[x], c)
			}
		}
	}
	return layout, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (Layout, error) {
	return Parse(strings.NewReader(s))
}

// Render draws g with the path marked; start and goal markers win over the
// path. Either marker may be nil.
func Render(g *Grid, start, goal *astar.Coord, path []astar.Coord) string {
	onPath := make(map[astar.Coord]bool, len(path))
	for _, c := range path {
		onPath[c] = true
	}

	var b strings.Builder
	b.Grow((g.columns + 1) * g.rows)
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.columns; x++ {
			c := astar.Coord{X: x, Y: y}
			switch {
			case start != nil && c == *start:
				b.WriteByte(SymbolStart)
			case goal != nil && c == *goal:
				b.WriteByte(SymbolGoal)
			case !g.IsWalkable(x, y):
				b.WriteByte(SymbolBlocked)
			case onPath[c]:
				b.WriteByte(SymbolPath)
			default:
				b.WriteByte(SymbolOpen)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
