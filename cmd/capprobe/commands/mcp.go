// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"github.com/spf13/cobra"

	"github.com/bartekus/capprobe/internal/mcpserver"
)

func newServeMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the probes as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
run_probes and inspect_environment tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.newHarness(false)
			if err != nil {
				return err
			}
			server := mcpserver.New(mcpserver.NewService(h), resolveVersion())
			a.logger.Debug("serving MCP on stdio")
			return mcpserver.RunStdio(cmd.Context(), server)
		},
	}
}
