package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and rebuild the similarity index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and dimension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIndexedApp(func(ctx context.Context, a *app) error {
			return printJSON(a.pipeline.IndexStats())
		})
	},
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from embeddings in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIndexedApp(func(ctx context.Context, a *app) error {
			n, err := a.pipeline.RebuildIndex(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Indexed %d claims\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStatsCmd, indexRebuildCmd)
}
