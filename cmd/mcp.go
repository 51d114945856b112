package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stsarena/arena/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an assistant
can query loadouts, run history, and statistics. Configure with:

  {
    "mcpServers": {
      "arena": { "command": "arena", "args": ["mcp"] }
    }
  }

Available tools: arena_list_loadouts, arena_get_loadout, arena_run_history,
arena_stats, arena_best_victories, arena_random_loadout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}
		return mcp.NewServer(s).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
