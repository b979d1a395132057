package mcptool

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, s *Server, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolFindPath
	req.Params.Arguments = args
	res, err := s.handleFindPath(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestSolve(t *testing.T) {
	report, err := Solve(context.Background(), "S..\n.#.\n..G", false)
	require.NoError(t, err)

	assert.Contains(t, report, "Path cost 40, 5 cells")
	assert.Contains(t, report, "Route: (0,0) -> ")
	assert.Contains(t, report, "-> (2,2)\n")
}

func TestSolveNoPath(t *testing.T) {
	report, err := Solve(context.Background(), "S#G", true)
	require.NoError(t, err)
	assert.Contains(t, report, "No path from (0,0) to (2,0) (1 nodes expanded)")
	assert.Contains(t, report, "S#G\n")
}

func TestSolveErrors(t *testing.T) {
	_, err := Solve(context.Background(), "", true)
	assert.Error(t, err)

	_, err = Solve(context.Background(), "S..", true)
	assert.ErrorContains(t, err, "markers")

	_, err = Solve(context.Background(), "S?G", true)
	assert.Error(t, err)
}

func TestFindPathTool(t *testing.T) {
	s := NewServer("test", true, slog.New(slog.DiscardHandler))
	require.NotNil(t, s.MCPServer())

	res := call(t, s, map[string]interface{}{"grid": "S..\n...\n..G"})
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Path cost 28")

	res = call(t, s, map[string]interface{}{"grid": "S..\n...\n..G", "diagonal": false})
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Path cost 40")
}

func TestFindPathToolErrors(t *testing.T) {
	s := NewServer("test", true, slog.New(slog.DiscardHandler))

	res := call(t, s, map[string]interface{}{"grid": "S.x"})
	assert.True(t, res.IsError)

	res = call(t, s, map[string]interface{}{"grid": "S.G", "diagonal": "sideways"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "diagonal")

	res = call(t, s, nil)
	assert.True(t, res.IsError)
}
