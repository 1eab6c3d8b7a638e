package cmd

import (
	"github.com/spf13/cobra"

	"github.com/agentic-research/resfs/internal/mcpserve"
	"github.com/agentic-research/resfs/internal/resources"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the selected source to MCP clients over stdio",
	Long: `Serve the selected source to MCP clients over stdio. The tools are
list_resources, read_resource and is_resource. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRoot(func(root resources.Traversable) error {
			return mcpserve.New(root, version, logger).ServeStdio()
		})
	},
}
