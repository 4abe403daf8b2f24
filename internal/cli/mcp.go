package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	dayflowmcp "github.com/valter-silva-au/dayflow/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the dayflow MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dayflow MCP server on stdio",
	Long: `Start the dayflow MCP server on stdio transport.

The server exposes planning as MCP tools that AI assistants can call:
list_tasks, generate_plan, get_plan, log_block, log_task, get_report,
get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil || PlanSvc == nil || WorkLogger == nil || Reporter == nil {
			return fmt.Errorf("planning services not initialized")
		}

		srv := dayflowmcp.NewServer(dayflowmcp.Services{
			TaskMgr:     TaskMgr,
			PlanSvc:     PlanSvc,
			WorkLogger:  WorkLogger,
			Reporter:    Reporter,
			MetricsCalc: MetricsCalc,
			AlertEngine: AlertEngine,
		}, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
