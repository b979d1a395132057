package tui

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	astar "github.com/pdrpinto/astar-grid"
	"github.com/pdrpinto/astar-grid/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 25)

	cfg := config.Default()
	cfg.Columns, cfg.Rows = 4, 3
	cfg.Density = 1
	cfg.Seed = 1
	cfg.Diagonal = false
	if mutate != nil {
		mutate(&cfg)
	}
	return New(screen, cfg, slog.New(slog.DiscardHandler)), screen
}

func background(t *testing.T, screen tcell.SimulationScreen, c astar.Coord) tcell.Color {
	t.Helper()
	_, _, style, _ := screen.GetContent(c.X*cellWidth, c.Y)
	_, bg, _ := style.Decompose()
	return bg
}

func TestFieldIsClippedToScreen(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.Columns, c.Rows = 500, 500 })
	assert.Equal(t, 40, app.grid.Columns())
	assert.Equal(t, 24, app.grid.Rows())
}

func TestClickFlowFindsPath(t *testing.T) {
	app, _ := newTestApp(t, nil)

	app.click(0, 0)
	require.NotNil(t, app.start)
	assert.False(t, app.engine.Running())

	app.click(3, 0)
	require.NotNil(t, app.goal)
	assert.True(t, app.engine.Running())

	for i := 0; i < 10 && app.engine.Running(); i++ {
		require.NoError(t, app.tick())
	}
	assert.False(t, app.engine.Running())
	assert.Equal(t, []astar.Coord{{X: 3, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}, app.path)
	assert.Contains(t, app.status, "cost 30")

	// Any click while a path is shown resets.
	app.click(2, 2)
	assert.Nil(t, app.path)
	assert.Nil(t, app.start)
	assert.Nil(t, app.goal)
}

func TestClicksOnBlockedCellsAreIgnored(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.grid.SetBlocked(1, 1, true)

	app.click(1, 1)
	assert.Nil(t, app.start)

	app.click(99, 99)
	assert.Nil(t, app.start)
}

func TestClicksWhileRunningAreIgnored(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.click(0, 0)
	app.click(3, 2)
	require.True(t, app.engine.Running())

	app.click(1, 1)
	assert.Equal(t, astar.Coord{X: 0, Y: 0}, *app.start)
	assert.Equal(t, astar.Coord{X: 3, Y: 2}, *app.goal)
}

func TestTickRunsStepsPerTick(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.StepsPerTick = 2 })
	app.click(0, 0)
	app.click(3, 2)

	require.NoError(t, app.tick())
	assert.Len(t, app.engine.Closed(), 2)
}

func TestNoPathResetsSession(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.grid.SetBlocked(1, 0, true)
	app.grid.SetBlocked(0, 1, true)
	app.click(0, 0)
	app.click(3, 2)

	for i := 0; i < 5; i++ {
		require.NoError(t, app.tick())
	}
	assert.False(t, app.engine.Running())
	assert.Nil(t, app.start)
	assert.Equal(t, "NO PATH COULD BE FOUND", app.status)
}

func TestToggleDiagonalOnlyWhenIdle(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.True(t, app.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone)))
	assert.True(t, app.diagonal)

	app.click(0, 0)
	app.click(3, 2)
	app.toggleDiagonal()
	assert.True(t, app.diagonal)
}

func TestKeys(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.click(0, 0)

	assert.True(t, app.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone)))
	assert.Nil(t, app.start)

	assert.False(t, app.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, app.handleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestMouseEventSelectsCell(t *testing.T) {
	app, _ := newTestApp(t, nil)

	app.handleEvent(tcell.NewEventMouse(5, 2, tcell.Button1, tcell.ModNone))
	require.NotNil(t, app.start)
	assert.Equal(t, astar.Coord{X: 2, Y: 2}, *app.start)
}

func TestDrawColoursSets(t *testing.T) {
	app, screen := newTestApp(t, nil)
	app.grid.SetBlocked(3, 0, true)
	app.click(0, 0)
	app.click(2, 2)
	require.NoError(t, app.tick())
	app.draw()

	assert.Equal(t, tcell.ColorRed, background(t, screen, astar.Coord{X: 0, Y: 0}))
	assert.Equal(t, tcell.ColorRed, background(t, screen, astar.Coord{X: 2, Y: 2}))
	assert.Equal(t, tcell.ColorGreen, background(t, screen, astar.Coord{X: 1, Y: 0}))
	assert.Equal(t, tcell.ColorBlack, background(t, screen, astar.Coord{X: 3, Y: 0}))
	assert.Equal(t, tcell.ColorWhite, background(t, screen, astar.Coord{X: 3, Y: 1}))
}

func TestRunStopsOnContext(t *testing.T) {
	app, _ := newTestApp(t, func(c *config.Config) { c.Tick = time.Millisecond })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, app.Run(ctx))
}

func TestRunStopsOnQuitKey(t *testing.T) {
	app, screen := newTestApp(t, nil)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit on q")
	}
}
