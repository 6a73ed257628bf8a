package main

import (
	"github.com/aretw0/beadnet/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [script.yaml]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts beadnet as an MCP server over standard input/output.
Agents can inspect the network, open channels, move beads and step through the presentation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ServeMCP(baseOptions(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
