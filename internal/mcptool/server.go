// Package mcptool exposes the search as an MCP tool so agents can ask for a
// path across an ASCII grid.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	astar "github.com/pdrpinto/astar-grid"
	"github.com/pdrpinto/astar-grid/grid"
	"github.com/pdrpinto/astar-grid/internal"
)

// ToolFindPath is the name of the registered tool.
const ToolFindPath = "find_path"

// Server wraps the MCP server and its tools.
type Server struct {
	mcpServer       *server.MCPServer
	logger          *slog.Logger
	defaultDiagonal bool
}

// NewServer creates an MCP server with the find_path tool registered.
func NewServer(version string, defaultDiagonal bool, logger *slog.Logger) *Server {
	s := &Server{logger: logger, defaultDiagonal: defaultDiagonal}
	s.mcpServer = server.NewMCPServer(
		"astar-grid",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`A* path finding on obstacle grids.

Use find_path with an ASCII grid: '#' blocked, '.' open, 'S' start, 'G' goal.
Orthogonal moves cost 10, diagonal moves cost 14.`),
	)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        ToolFindPath,
		Description: "Find a path from S to G on an ASCII obstacle grid and draw it with '*'",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"grid": map[string]interface{}{
					"type":        "string",
					"description": "Rows separated by newlines using '#', '.', 'S' and 'G'",
				},
				"diagonal": map[string]interface{}{
					"type":        "boolean",
					"description": "Allow diagonal moves (optional)",
				},
			},
			Required: []string{"grid"},
		},
	}, s.handleFindPath)
	return s
}

// MCPServer returns the underlying server, for ServeStdio or HTTP transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	text, _ := args["grid"].(string)

	diagonal := s.defaultDiagonal
	if raw, ok := args["diagonal"]; ok {
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("diagonal: %v", err)), nil
		}
		diagonal = v
	}

	report, err := Solve(ctx, text, diagonal)
	if err != nil {
		s.logger.Debug("find_path failed", slog.Any("error", err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report), nil
}

// Solve parses an ASCII layout, searches it and formats a report with the
// path drawn onto the grid. A missing path is reported, not returned as an
// error; malformed layouts are errors.
func Solve(ctx context.Context, text string, diagonal bool) (string, error) {
	layout, err := grid.ParseString(text)
	if err != nil {
		return "", err
	}
	if layout.Start == nil || layout.Goal == nil {
		return "", fmt.Errorf("grid needs both %c and %c markers", grid.SymbolStart, grid.SymbolGoal)
	}

	res, err := astar.Search(ctx, layout.Grid, *layout.Start, *layout.Goal, diagonal)
	var b strings.Builder
	switch {
	case errors.Is(err, astar.ErrNoPath):
		fmt.Fprintf(&b, "No path from %v to %v (%d nodes expanded).\n", *layout.Start, *layout.Goal, res.ExpandedNodes)
		b.WriteString(grid.Render(layout.Grid, layout.Start, layout.Goal, nil))
		return b.String(), nil
	case err != nil:
		return "", err
	}

	fmt.Fprintf(&b, "Path cost %d, %d cells, %d nodes expanded.\n", res.TotalCost, len(res.Path), res.ExpandedNodes)
	steps := make([]string, 0, len(res.Path))
	for _, c := range internal.Reverse(res.Path) {
		steps = append(steps, c.String())
	}
	fmt.Fprintf(&b, "Route: %s\n", strings.Join(steps, " -> "))
	b.WriteString(grid.Render(layout.Grid, layout.Start, layout.Goal, res.Path))
	return b.String(), nil
}
