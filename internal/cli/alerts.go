package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/model"
)

var (
	alertsSeverity string
	alertsResolved bool
	alertsLimit    int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and resolve high-harm alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			alerts, err := a.pipeline.ListAlerts(ctx, !alertsResolved, model.Severity(alertsSeverity), alertsLimit)
			if err != nil {
				return err
			}
			return printJSON(alerts)
		})
	},
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Mark an alert as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.pipeline.ResolveAlert(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Resolved alert %s\n", args[0])
			return nil
		})
	},
}

var alertsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent alerts pushed to the Redis trend board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if a.board == nil {
				return errors.New("redis trend board is not enabled (redis.enabled)")
			}
			alerts, err := a.board.RecentAlerts(ctx, int64(alertsLimit))
			if err != nil {
				return err
			}
			return printJSON(alerts)
		})
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd, alertsResolveCmd, alertsRecentCmd)

	alertsListCmd.Flags().StringVar(&alertsSeverity, "severity", "", "filter by severity: low, medium, high, critical")
	alertsListCmd.Flags().BoolVar(&alertsResolved, "resolved", false, "list resolved alerts instead of active ones")
	alertsCmd.PersistentFlags().IntVar(&alertsLimit, "limit", 20, "maximum alerts to return")
}
