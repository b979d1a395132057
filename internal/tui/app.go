// Package tui is the terminal harness: it owns the obstacle field, turns mouse
// clicks into start and goal cells, and steps the engine once per frame.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	astar "github.com/pdrpinto/astar-grid"
	"github.com/pdrpinto/astar-grid/config"
	"github.com/pdrpinto/astar-grid/grid"
)

// cellWidth is the number of terminal columns per grid cell; two keeps cells
// roughly square.
const cellWidth = 2

var (
	styleOpenCell = tcell.StyleDefault.Background(tcell.ColorWhite)
	styleBlocked  = tcell.StyleDefault.Background(tcell.ColorBlack)
	styleFrontier = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleExpanded = tcell.StyleDefault.Background(tcell.ColorGray)
	styleEndpoint = tcell.StyleDefault.Background(tcell.ColorRed)
	stylePath     = tcell.StyleDefault.Background(tcell.ColorRed)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// App is one interactive session on a terminal screen.
type App struct {
	screen tcell.Screen
	cfg    config.Config
	logger *slog.Logger
	rng    *rand.Rand
	engine *astar.Engine

	grid     *grid.Grid
	diagonal bool
	start    *astar.Coord
	goal     *astar.Coord
	path     []astar.Coord
	status   string
}

// New creates an App on an initialised screen. The field is sized from the
// config and clipped to the screen.
func New(screen tcell.Screen, cfg config.Config, logger *slog.Logger) *App {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a := &App{
		screen:   screen,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
		engine:   astar.New(astar.WithLogger(logger)),
		diagonal: cfg.Diagonal,
	}
	a.newField()
	return a
}

// Run drives the frame loop until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	defer a.screen.DisableMouse()

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(a.cfg.Tick)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !a.handleEvent(ev) {
				return nil
			}
			a.draw()
		case <-ticker.C:
			if err := a.tick(); err != nil {
				return err
			}
			a.draw()
		}
	}
}

// tick runs up to StepsPerTick engine steps, stopping at a terminal result.
func (a *App) tick() error {
	for i := 0; i < a.cfg.StepsPerTick && a.engine.Running(); i++ {
		res, err := a.engine.Step()
		if err != nil {
			return fmt.Errorf("step search: %w", err)
		}
		switch res.Status {
		case astar.Success:
			a.path = res.Path
			a.status = fmt.Sprintf("path found: cost %d, %d cells (click to reset)", res.Cost, len(res.Path))
			a.logger.Info("path found", slog.Int("cost", res.Cost), slog.Int("length", len(res.Path)))
		case astar.Failure:
			a.logger.Info("no path", slog.Any("start", *a.start), slog.Any("goal", *a.goal))
			a.reset()
			a.status = "NO PATH COULD BE FOUND"
		}
	}
	return nil
}

// handleEvent returns false when the app should exit.
func (a *App) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() != tcell.KeyRune:
		case ev.Rune() == 'q':
			return false
		case ev.Rune() == 'r':
			a.reset()
		case ev.Rune() == 'n':
			a.newField()
		case ev.Rune() == 'd':
			a.toggleDiagonal()
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			a.click(x/cellWidth, y)
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

// click applies the point-and-click flow: a click while a path is
// shown resets; otherwise the first walkable click sets the start and the
// second sets the goal and begins the search.
func (a *App) click(x, y int) {
	if len(a.path) > 0 {
		a.reset()
		return
	}
	if a.engine.Running() || !a.grid.IsWalkable(x, y) {
		return
	}

	c := astar.Coord{X: x, Y: y}
	if a.start == nil {
		a.start = &c
		a.status = "select goal"
		return
	}
	a.goal = &c
	if err := a.engine.Begin(a.grid, *a.start, *a.goal, a.diagonal); err != nil {
		a.logger.Error("begin search", slog.Any("error", err))
		a.reset()
		a.status = err.Error()
		return
	}
	a.status = "searching"
}

func (a *App) reset() {
	a.engine.Reset()
	a.start, a.goal, a.path = nil, nil, nil
	a.status = "select start"
}

func (a *App) toggleDiagonal() {
	if a.engine.Running() {
		return
	}
	a.diagonal = !a.diagonal
	a.status = fmt.Sprintf("diagonal moves: %v", a.diagonal)
}

// newField replaces the obstacle field and clears any search.
func (a *App) newField() {
	columns, rows := a.cfg.Columns, a.cfg.Rows
	if w, h := a.screen.Size(); w > 0 && h > 1 {
		columns = min(columns, w/cellWidth)
		rows = min(rows, h-1)
	}
	a.grid = grid.Random(columns, rows, a.cfg.Density, a.rng)
	a.reset()
	a.logger.Debug("new field",
		slog.Int("columns", columns),
		slog.Int("rows", rows),
		slog.Float64("density", a.cfg.Density))
}

func (a *App) draw() {
	a.screen.Clear()

	for y := 0; y < a.grid.Rows(); y++ {
		for x := 0; x < a.grid.Columns(); x++ {
			style := styleOpenCell
			if !a.grid.IsWalkable(x, y) {
				style = styleBlocked
			}
			a.fill(astar.Coord{X: x, Y: y}, style)
		}
	}
	for _, n := range a.engine.Open() {
		a.fill(n.Coord(), styleFrontier)
	}
	for _, n := range a.engine.Closed() {
		a.fill(n.Coord(), styleExpanded)
	}
	for _, c := range a.path {
		a.fill(c, stylePath)
	}
	for _, c := range []*astar.Coord{a.start, a.goal} {
		if c != nil {
			a.fill(*c, styleEndpoint)
		}
	}

	a.drawStatus()
	a.screen.Show()
}

func (a *App) fill(c astar.Coord, style tcell.Style) {
	for i := 0; i < cellWidth; i++ {
		a.screen.SetContent(c.X*cellWidth+i, c.Y, ' ', nil, style)
	}
}

func (a *App) drawStatus() {
	line := fmt.Sprintf(" %s | diagonal=%v steps/tick=%d | q quit, r reset, n new field, d diagonal",
		a.status, a.diagonal, a.cfg.StepsPerTick)
	y := a.grid.Rows()
	for i, r := range line {
		a.screen.SetContent(i, y, r, nil, styleStatus)
	}
}
