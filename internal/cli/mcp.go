package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	ppadmcp "github.com/drmercer/prompt-pad/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio transport.

The server exposes the task queue of a running ppad daemon as MCP tools
that AI coding assistants can call: submit_task, list_tasks, get_task.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}

		srv := ppadmcp.NewServer(api, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	mcpCmd.Flags().StringVar(&clientAddr, "addr", "", "Server address (default from config)")
	rootCmd.AddCommand(mcpCmd)
}
