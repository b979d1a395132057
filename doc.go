// Package astar provides a step-driven A* search over 2D obstacle grids.
//
// It exposes two main entry points:
//
//   - Engine: begin a session, then call Step once per unit of work and
//     render the open and closed sets in between.
//   - Search: run the engine to completion and get a Result.
//
// Moves cost 10 orthogonally and 14 diagonally. The heuristic walks toward
// the goal one unit per axis per iteration and charges 10 per axis moved, so
// with diagonal movement enabled it can overestimate and the returned path is
// not guaranteed to be optimal. Closed nodes are never reopened.
//
// An Engine holds one session at a time and is not safe for concurrent use.
package astar
