// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the opendxi MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"OpenDXI Sprint Metrics Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("get_sprint_metrics",
		mcp.WithDescription("Get ranked per-developer DXI scores, daily activity and team summary for one sprint. Served from the store when available."),
		mcp.WithString("start_date", mcp.Description("Sprint start date (YYYY-MM-DD). Must be given with end_date.")),
		mcp.WithString("end_date", mcp.Description("Sprint end date (YYYY-MM-DD). Must be given with start_date.")),
		mcp.WithNumber("sprint", mcp.Description("Sprint relative to the current one when no dates are given (0 = current, -1 = previous).")),
		mcp.WithString("developer", mcp.Description("Only return this GitHub login.")),
		mcp.WithBoolean("force", mcp.Description("Refetch from GitHub and replace the stored sprint.")),
	), h.handleGetSprintMetrics)

	s.AddTool(mcp.NewTool("list_sprints",
		mcp.WithDescription("List recent sprint windows, newest first, and whether each is already stored."),
		mcp.WithNumber("limit", mcp.Description("Number of sprints to list (default 6).")),
	), h.handleListSprints)

	s.AddTool(mcp.NewTool("get_sprint_history",
		mcp.WithDescription("Team DXI trend over recent sprints, oldest first."),
		mcp.WithNumber("limit", mcp.Description("Number of sprints to include (default 6).")),
	), h.handleGetSprintHistory)

	s.AddTool(mcp.NewTool("get_developer_history",
		mcp.WithDescription("One developer's DXI trend over recent sprints alongside the team trend."),
		mcp.WithString("developer", mcp.Description("GitHub login."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of sprints to include (default 6).")),
	), h.handleGetDeveloperHistory)

	s.AddTool(mcp.NewTool("list_cached_sprints",
		mcp.WithDescription("List the sprint windows held in the store without fetching anything."),
	), h.handleListCachedSprints)

	return s
}

// StartMCPServer starts the opendxi MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
