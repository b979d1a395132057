package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 0.7, c.Density)
	assert.Equal(t, 1, c.StepsPerTick)
	assert.True(t, c.Diagonal)
	assert.Equal(t, 40, c.Columns)
	assert.Equal(t, 24, c.Rows)
	assert.Equal(t, 50*time.Millisecond, c.Tick)
	assert.Empty(t, c.Warnings)
}

func TestFromValuesValid(t *testing.T) {
	c := FromValues(Default(), map[string]any{
		"density":        "0.25",
		"diagonal":       "false",
		"steps_per_tick": "8",
		"columns":        int64(12),
		"rows":           9,
		"seed":           "42",
		"tick":           "10ms",
		"log_level":      "DEBUG",
	})

	assert.Empty(t, c.Warnings)
	assert.Equal(t, 0.25, c.Density)
	assert.False(t, c.Diagonal)
	assert.Equal(t, 8, c.StepsPerTick)
	assert.Equal(t, 12, c.Columns)
	assert.Equal(t, 9, c.Rows)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 10*time.Millisecond, c.Tick)
	assert.Equal(t, slog.LevelDebug, c.Level())
}

func TestFromValuesFallbacks(t *testing.T) {
	base := Default()
	base.Density = 0.3
	base.StepsPerTick = 5

	c := FromValues(base, map[string]any{
		"density":        "lots",
		"diagonal":       "maybe",
		"steps_per_tick": "0",
		"columns":        -3,
		"tick":           "soon",
		"log_level":      "chatty",
		"colour":         "red",
	})

	assert.Equal(t, DefaultDensity, c.Density)
	assert.Equal(t, DefaultDiagonal, c.Diagonal)
	assert.Equal(t, DefaultStepsPerTick, c.StepsPerTick)
	assert.Equal(t, DefaultColumns, c.Columns)
	assert.Equal(t, DefaultTick, c.Tick)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)
	assert.Len(t, c.Warnings, 7)
}

func TestStepsPerTickRejectsNegative(t *testing.T) {
	c := FromValues(Default(), map[string]any{"steps_per_tick": -4})
	assert.Equal(t, 1, c.StepsPerTick)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], "steps_per_tick")
}

func TestFromValuesDoesNotAliasWarnings(t *testing.T) {
	base := FromValues(Default(), map[string]any{"bogus": 1})
	require.Len(t, base.Warnings, 1)

	derived := FromValues(base, map[string]any{"other": 1})
	assert.Len(t, derived.Warnings, 2)
	assert.Len(t, base.Warnings, 1)
}

func TestParse(t *testing.T) {
	c, err := Parse(Default(), `
columns = 60
density = 0.65
diagonal = false
steps_per_tick = 4
tick = "30ms"
`)
	require.NoError(t, err)
	assert.Empty(t, c.Warnings)
	assert.Equal(t, 60, c.Columns)
	assert.Equal(t, 0.65, c.Density)
	assert.False(t, c.Diagonal)
	assert.Equal(t, 4, c.StepsPerTick)
	assert.Equal(t, 30*time.Millisecond, c.Tick)
}

func TestParseInvalidTOML(t *testing.T) {
	_, err := Parse(Default(), "columns = = 3")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "astar-grid.toml")
	require.NoError(t, os.WriteFile(path, []byte("rows = 10\nsteps_per_tick = \"x\"\n"), 0o644))

	c, err := LoadFile(Default(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Rows)
	assert.Equal(t, 1, c.StepsPerTick)
	assert.Len(t, c.Warnings, 1)
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	c, err := LoadFile(Default(), path, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = LoadFile(Default(), path, false)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
