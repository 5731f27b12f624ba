package cmd

import (
	"github.com/spf13/cobra"

	"digest/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients drive the digest engine natively: detecting and
tracking issues, searching, pulling statistics, and managing project
configurations. Configure a client with:

  {
    "mcpServers": {
      "digest": { "command": "digest", "args": ["serve"] }
    }
  }

Available tools: digest_detect_issues, digest_list_issues,
digest_create_issue, digest_update_issue_status, digest_search_issues,
digest_issue_stats, digest_list_projects, digest_create_project`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := mcp.NewServer(getTracker(), getRegistry(), actingUser())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
