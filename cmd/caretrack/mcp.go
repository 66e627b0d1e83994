// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server over the same tracker the CLI uses.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/caretrack/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout and shares the pending queue with
the CLI, so sessions logged through it are saved offline the same way.

CONFIGURATION:

  {
    "mcpServers": {
      "caretrack": {
        "command": "caretrack",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  log_session     Record a compliance session
  list_sessions   List recent sessions
  dashboard       Averages, tiers, and benchmark
  trends          Month-over-month comparison
  leaderboard     Rank hospitals or locations
  sync_now        Push pending sessions
  queue_status    Show pending sessions

AVAILABLE RESOURCES:

  caretrack://dashboard   Dashboard across all hospitals
  caretrack://pending     Sessions waiting to sync`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(app, logger.Named("mcp"))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
