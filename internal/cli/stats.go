package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show claim, verdict and alert totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			stats, err := a.pipeline.Stats(ctx)
			if err != nil {
				return err
			}
			if a.board != nil {
				if err := a.board.Ping(ctx); err != nil {
					a.logger.Warn("redis trend board unreachable", "error", err)
				}
			}
			return printJSON(stats)
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
