package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newCommand(strings.NewReader(stdin), &stdout, &stderr)
	err := cmd.Run(context.Background(), append([]string{appName}, args...))
	return stdout.String(), stderr.String(), err
}

func TestSolveFromStdin(t *testing.T) {
	out, _, err := runCLI(t, "S..\n.#.\n..G\n", "--diagonal", "false", "solve")
	require.NoError(t, err)

	assert.Contains(t, out, "Path cost 40")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSolveFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maze.txt")
	require.NoError(t, os.WriteFile(path, []byte("S..\n...\n..G\n"), 0o644))

	out, _, err := runCLI(t, "", "solve", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Path cost 28")
	assert.Contains(t, out, "S..\n.*.\n..G\n")
}

func TestSolveConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "astar.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("diagonal = false\n"), 0o644))

	out, _, err := runCLI(t, "S..\n...\n..G\n", "--config", cfgPath, "solve")
	require.NoError(t, err)
	assert.Contains(t, out, "Path cost 40")

	t.Setenv("ASTAR_DIAGONAL", "true")
	out, _, err = runCLI(t, "S..\n...\n..G\n", "--config", cfgPath, "solve")
	require.NoError(t, err)
	assert.Contains(t, out, "Path cost 28")
}

func TestSolveErrors(t *testing.T) {
	_, _, err := runCLI(t, "S..\n", "solve")
	assert.ErrorContains(t, err, "markers")

	_, _, err = runCLI(t, "", "solve", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "read grid")

	_, _, err = runCLI(t, "S.G", "--config", filepath.Join(t.TempDir(), "missing.toml"), "solve")
	assert.ErrorContains(t, err, "failed to load config")
}

func TestSolveNoPathIsReported(t *testing.T) {
	out, _, err := runCLI(t, "S#G\n", "solve")
	require.NoError(t, err)
	assert.Contains(t, out, "No path")
}

func TestLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "astar.log")

	_, _, err := runCLI(t, "S.G", "--log-file", logPath, "--density", "lots", "solve")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config fallback")
	assert.Contains(t, string(data), "density")
}
