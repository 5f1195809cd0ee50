// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Shiptalkers MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svc contract.ReportService) *server.MCPServer {
	s := server.NewMCPServer(
		"Shiptalkers Report Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		svc:     svc,
	}

	// --- 1. Tool: get_messaging_report ---
	s.AddTool(mcp.NewTool("get_messaging_report",
		mcp.WithDescription("Compare a workspace member's estimated messaging time against their tracked coding time."),
		mcp.WithString("username", mcp.Description("Exact workspace username of the member."), mcp.Required()),
		mcp.WithString("trigger", mcp.Description("Free-form request text. Mentioning 'all time' or 'one year' selects the reporting window; otherwise the last 30 days.")),
		mcp.WithString("avatar_url", mcp.Description("Avatar URL to put on the report card. Looked up from the profile when omitted.")),
	), h.handleGetMessagingReport)

	// --- 2. Tool: resolve_mode ---
	s.AddTool(mcp.NewTool("resolve_mode",
		mcp.WithDescription("Show which reporting window a trigger phrase selects and the dates it covers."),
		mcp.WithString("trigger", mcp.Description("Free-form request text."), mcp.Required()),
	), h.handleResolveMode)

	// --- 3. Tool: estimate_time ---
	s.AddTool(mcp.NewTool("estimate_time",
		mcp.WithDescription("Estimate messaging time from raw activity counters using the active weights."),
		mcp.WithNumber("messages_posted", mcp.Description("Messages posted."), mcp.Required()),
		mcp.WithNumber("reactions_added", mcp.Description("Reactions added.")),
		mcp.WithNumber("days_active_desktop", mcp.Description("Days active on desktop.")),
		mcp.WithNumber("days_active_android", mcp.Description("Days active on Android.")),
		mcp.WithNumber("days_active_ios", mcp.Description("Days active on iOS.")),
	), h.handleEstimateTime)

	return s
}

// StartMCPServer starts the Shiptalkers MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, svc contract.ReportService) error {
	s := NewMCPServer(baseCfg, svc)
	return server.ServeStdio(s)
}
