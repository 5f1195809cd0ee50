package cmd

import (
	"github.com/huangsam/shiptalkers/core"
	"github.com/huangsam/shiptalkers/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Shiptalkers MCP server",
	Long:  `Launch an MCP server that lets agents request shipper/talker reports via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol, so logs must stay on stderr or a file.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, core.NewServiceFromConfig(cfg, historyManager))
	},
}
