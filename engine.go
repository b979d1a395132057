package astar

import (
	"cmp"
	"container/heap"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pdrpinto/astar-grid/internal"
)

// Snapshot exposes the state of the current (or last finished) session.
type Snapshot struct {
	Open    []NodeInfo `json:"open"`
	Closed  []NodeInfo `json:"closed"`
	Current *Coord     `json:"current,omitempty"`
	Start   Coord      `json:"start"`
	Goal    Coord      `json:"goal"`
	Steps   int        `json:"steps"`
	Running bool       `json:"running"`
	Status  Status     `json:"status"`
	Path    []Coord    `json:"path,omitempty"`
}

// session is everything one search owns. It is created by Begin and
// discarded by Reset or the next Begin.
type session struct {
	grid          GridView
	columns, rows int
	start, goal   Coord
	allowDiagonal bool

	nodes  []node
	cells  []int32 // row-major cell -> handle, noParent if undiscovered
	open   PriorityQueue
	closed []int32

	nextSeq     uint64
	scratch     []Coord
	steps       int
	relaxations int

	running bool
	status  Status
	current *Coord
	path    []Coord
}

func (s *session) lookup(c Coord) int32 {
	return s.cells[c.Y*s.columns+c.X]
}

// insert appends n to the arena and pushes it onto the open set.
func (s *session) insert(n node) int32 {
	handle := int32(len(s.nodes))
	n.Seq = s.nextSeq
	s.nextSeq++
	s.nodes = append(s.nodes, n)
	s.cells[n.Y*s.columns+n.X] = handle
	heap.Push(&s.open, handle)
	return handle
}

func (s *session) parent(handle int32) (int32, bool) {
	p := s.nodes[handle].Parent
	return p, p != noParent
}

// Engine runs one A* session at a time, one expansion per Step.
type Engine struct {
	logger *slog.Logger
	s      *session
}

// New creates an idle engine.
func New(options ...Option) *Engine {
	opts := Options{}
	for _, o := range options {
		o(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: opts.Logger}
}

// Begin starts a session from start to goal over grid. It fails with
// ErrInvalidPrecondition while another session is running, for a nil grid, or
// for coordinates outside the grid.
//
// Start and goal must be walkable; the engine does not check this. A blocked
// start is still expanded and a blocked goal is never discovered, so the
// session ends in Failure.
func (e *Engine) Begin(grid GridView, start, goal Coord, allowDiagonal bool) error {
	if e.s != nil && e.s.running {
		return fmt.Errorf("%w: a search session is already running", ErrInvalidPrecondition)
	}
	if grid == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalidPrecondition)
	}
	columns, rows := grid.Columns(), grid.Rows()
	for _, c := range [...]Coord{start, goal} {
		if c.X < 0 || c.Y < 0 || c.X >= columns || c.Y >= rows {
			return fmt.Errorf("%w: %v outside %dx%d grid", ErrInvalidPrecondition, c, columns, rows)
		}
	}

	s := &session{
		grid:          grid,
		columns:       columns,
		rows:          rows,
		start:         start,
		goal:          goal,
		allowDiagonal: allowDiagonal,
		cells:         make([]int32, columns*rows),
		scratch:       make([]Coord, 0, 9),
		running:       true,
	}
	for i := range s.cells {
		s.cells[i] = noParent
	}
	s.open = newPriorityQueue(&s.nodes)
	heap.Init(&s.open)
	s.insert(node{
		Coord:  start,
		Parent: noParent,
		H:      Heuristic(start, goal),
	})

	e.s = s
	e.logger.Debug("search begin",
		slog.Any("start", start),
		slog.Any("goal", goal),
		slog.Bool("diagonal", allowDiagonal),
		slog.Int("columns", columns),
		slog.Int("rows", rows))
	return nil
}

// Step performs one unit of work. It fails with ErrInvalidPrecondition when
// no session is running, including after a Success or Failure result.
func (e *Engine) Step() (StepResult, error) {
	s := e.s
	if s == nil || !s.running {
		return StepResult{}, fmt.Errorf("%w: no running search session", ErrInvalidPrecondition)
	}

	if s.open.Len() == 0 {
		s.running = false
		s.status = Failure
		s.current = nil
		e.logger.Debug("search failed",
			slog.Int("steps", s.steps),
			slog.Int("closed", len(s.closed)))
		return StepResult{Status: Failure}, nil
	}

	s.steps++
	lowest := s.open.peek()
	current := s.nodes[lowest].Coord
	s.current = &current

	if current == s.goal {
		handles := internal.Backtrace(lowest, s.parent)
		path := make([]Coord, len(handles))
		for i, h := range handles {
			path[i] = s.nodes[h].Coord
		}
		s.running = false
		s.status = Success
		s.path = path
		cost := s.nodes[lowest].G
		e.logger.Debug("search succeeded",
			slog.Int("steps", s.steps),
			slog.Int("cost", cost),
			slog.Int("length", len(path)),
			slog.Int("relaxations", s.relaxations))
		return StepResult{Status: Success, Current: current, Path: slices.Clone(path), Cost: cost}, nil
	}

	heap.Pop(&s.open)
	s.nodes[lowest].Closed = true
	s.closed = append(s.closed, lowest)
	s.expand(lowest)

	return StepResult{Status: InProgress, Current: current}, nil
}

// Reset drops the current session, running or finished.
func (e *Engine) Reset() {
	if e.s != nil && e.s.running {
		e.logger.Debug("search reset", slog.Int("steps", e.s.steps))
	}
	e.s = nil
}

// Running reports whether a session is waiting for further steps.
func (e *Engine) Running() bool { return e.s != nil && e.s.running }

// Open returns the open set in insertion order.
func (e *Engine) Open() []NodeInfo {
	if e.s == nil {
		return nil
	}
	handles := slices.Clone(e.s.open.handles)
	slices.SortFunc(handles, func(a, b int32) int {
		return cmp.Compare(e.s.nodes[a].Seq, e.s.nodes[b].Seq)
	})
	return e.s.infos(handles)
}

// Closed returns the closed set in expansion order.
func (e *Engine) Closed() []NodeInfo {
	if e.s == nil {
		return nil
	}
	return e.s.infos(e.s.closed)
}

// Snapshot copies the session state for rendering. The zero Snapshot is
// returned when the engine is idle.
func (e *Engine) Snapshot() Snapshot {
	if e.s == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Open:    e.Open(),
		Closed:  e.Closed(),
		Start:   e.s.start,
		Goal:    e.s.goal,
		Steps:   e.s.steps,
		Running: e.s.running,
		Status:  e.s.status,
		Path:    slices.Clone(e.s.path),
	}
	if e.s.current != nil {
		c := *e.s.current
		snap.Current = &c
	}
	return snap
}

func (s *session) infos(handles []int32) []NodeInfo {
	out := make([]NodeInfo, len(handles))
	for i, h := range handles {
		n := &s.nodes[h]
		out[i] = NodeInfo{X: n.X, Y: n.Y, G: n.G, H: n.H}
	}
	return out
}
