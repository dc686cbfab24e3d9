package cmd

import (
	"github.com/huangsam/opendxi/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the OpenDXI MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents query sprint metrics,
sprint windows and DXI history through standard tools.

Logs go to stderr so that stdout stays reserved for the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, version)
	},
}
