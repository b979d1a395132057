package astar

// Move costs. Diagonal approximates 10·√2.
const (
	CostOrthogonal = 10
	CostDiagonal   = 14
)

// stepCost is the price of moving between two adjacent cells.
func stepCost(from, to Coord) int {
	if from.X == to.X || from.Y == to.Y {
		return CostOrthogonal
	}
	return CostDiagonal
}

// Heuristic estimates the remaining cost from a cell to the goal: every
// iteration moves one unit along each axis that still differs and charges
// CostOrthogonal per axis moved. The closed form is 10 * (|dx| + |dy|).
func Heuristic(from, goal Coord) int {
	return CostOrthogonal * (abs(goal.X-from.X) + abs(goal.Y-from.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
