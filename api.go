package astar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrInvalidPrecondition marks programming errors: stepping without a
	// running session, beginning while one is running, or feeding the engine
	// coordinates outside the grid.
	ErrInvalidPrecondition = errors.New("invalid precondition")

	// ErrNoPath is returned by Search when the open set is exhausted before
	// the goal is reached.
	ErrNoPath = errors.New("no path found")
)

// Coord identifies a grid cell.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// GridView is the read-only walkability field the engine searches.
// The engine never mutates it and assumes it does not change while a
// session is running.
type GridView interface {
	Columns() int
	Rows() int
	IsWalkable(x, y int) bool
}

// Status tags the outcome of a single Step.
type Status int

const (
	// InProgress means one node was expanded and the search continues.
	InProgress Status = iota
	// Success means the goal was selected; StepResult.Path is set.
	Success
	// Failure means the open set emptied before reaching the goal.
	Failure
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText lets Status travel as a string in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "in_progress":
		*s = InProgress
	case "success":
		*s = Success
	case "failure":
		*s = Failure
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// StepResult is what one call to Step produced.
type StepResult struct {
	Status Status
	// Current is the node selected by this step (expanded, or the goal on
	// success). Zero on failure.
	Current Coord
	// Path runs goal to start. Only set on Success.
	Path []Coord
	// Cost is the g value of the goal node. Only set on Success.
	Cost int
}

// Done reports whether the step ended the session.
func (r StepResult) Done() bool { return r.Status != InProgress }

// NodeInfo is a read-only copy of a node for rendering or debugging.
type NodeInfo struct {
	X int `json:"x"`
	Y int `json:"y"`
	G int `json:"g"`
	H int `json:"h"`
}

// F returns g + h.
func (n NodeInfo) F() int { return n.G + n.H }

// Coord returns the node's cell.
func (n NodeInfo) Coord() Coord { return Coord{X: n.X, Y: n.Y} }

// Result contains the outcome of a search run to completion.
type Result struct {
	Path          []Coord
	TotalCost     int
	ExpandedNodes int
	Found         bool
}

// Options defines engine parameters.
type Options struct {
	Logger *slog.Logger
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(options *Options) { options.Logger = logger }
}

// Search runs a full search from start to goal, stepping the engine until
// it terminates. Cancellation is checked between steps.
func Search(
	ctx context.Context,
	grid GridView,
	start Coord,
	goal Coord,
	allowDiagonal bool,
	options ...Option,
) (Result, error) {
	engine := New(options...)
	if err := engine.Begin(grid, start, goal, allowDiagonal); err != nil {
		return Result{}, err
	}

	expanded := 0
	for {
		if err := ctx.Err(); err != nil {
			engine.Reset()
			return Result{ExpandedNodes: expanded}, err
		}

		step, err := engine.Step()
		if err != nil {
			return Result{ExpandedNodes: expanded}, err
		}

		switch step.Status {
		case Success:
			return Result{
				Path:          step.Path,
				TotalCost:     step.Cost,
				ExpandedNodes: expanded,
				Found:         true,
			}, nil
		case Failure:
			return Result{ExpandedNodes: expanded}, ErrNoPath
		default:
			expanded++
		}
	}
}
