package astar

import "container/heap"

// relaxProposal is a candidate path to a neighbour through the expanding node.
type relaxProposal struct {
	FromNode int32
	ToCell   Coord
	GScore   int
}

// neighbours lists the candidate cells around c in the order they are
// examined. With diagonals the clamped 3×3 block is walked column by column
// and c itself is left in; expand filters it out by coordinate.
func (s *session) neighbours(c Coord) []Coord {
	out := s.scratch[:0]
	if s.allowDiagonal {
		for x := max(0, c.X-1); x <= min(c.X+1, s.columns-1); x++ {
			for y := max(0, c.Y-1); y <= min(c.Y+1, s.rows-1); y++ {
				out = append(out, Coord{X: x, Y: y})
			}
		}
	} else {
		if c.Y > 0 {
			out = append(out, Coord{X: c.X, Y: c.Y - 1})
		}
		if c.X > 0 {
			out = append(out, Coord{X: c.X - 1, Y: c.Y})
		}
		if c.X < s.columns-1 {
			out = append(out, Coord{X: c.X + 1, Y: c.Y})
		}
		if c.Y < s.rows-1 {
			out = append(out, Coord{X: c.X, Y: c.Y + 1})
		}
	}
	s.scratch = out
	return out
}

// expand examines every neighbour of the node behind handle.
func (s *session) expand(handle int32) {
	from := s.nodes[handle].Coord
	g := s.nodes[handle].G
	for _, cell := range s.neighbours(from) {
		if cell == from || !s.grid.IsWalkable(cell.X, cell.Y) {
			continue
		}
		s.relax(relaxProposal{
			FromNode: handle,
			ToCell:   cell,
			GScore:   g + stepCost(from, cell),
		})
	}
}

// relax applies a proposal: improve an open node, ignore a closed one, or
// discover a new node.
func (s *session) relax(p relaxProposal) {
	existing := s.lookup(p.ToCell)
	if existing == noParent {
		s.discover(p)
		return
	}

	n := &s.nodes[existing]
	if n.Closed {
		return
	}
	if p.GScore < n.G {
		n.G = p.GScore
		n.Parent = p.FromNode
		heap.Fix(&s.open, n.IndexInQueue)
		s.relaxations++
	}
}

func (s *session) discover(p relaxProposal) {
	s.insert(node{
		Coord:  p.ToCell,
		Parent: p.FromNode,
		G:      p.GScore,
		H:      Heuristic(p.ToCell, s.goal),
	})
}
