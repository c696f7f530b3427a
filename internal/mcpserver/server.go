// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mcpserver exposes the probe harness as MCP tools.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// New creates an MCP server with the run_probes and inspect_environment tools
// registered.
func New(svc *Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "capprobe",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_probes",
		Description: "Run capability probes (all of them, or the named subset in order) and return the structured report: environment facts, derived capability flags and one result per probe.",
	}, svc.RunProbes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_environment",
		Description: "Return runtime version, platform, executable path, the first search path entries and the loaded module count of the server process.",
	}, svc.InspectEnvironment)

	return server
}

// RunStdio serves on stdin/stdout until the client disconnects or ctx ends.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
