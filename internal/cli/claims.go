package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
)

var (
	listClaimType string
	listStatus    string
	listOffset      int
	listLimit     int

	similarK         int
	similarThreshold float64
)

// claimCmd represents the claim command
var claimCmd = &cobra.Command{
	Use:   "claim <claim-id>",
	Short: "Show a claim with its verdict, evidence and similar claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIndexedApp(func(ctx context.Context, a *app) error {
			d, err := a.pipeline.ClaimDetail(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(d)
		})
	},
}

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "List stored claims",
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims, newest first",
	Long: `List stored claims, newest first, optionally filtered by claim type and status.

Example:
  verifact claims list --type health --status verified --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			filter := store.ClaimFilter{
				Status: model.ClaimStatus(listStatus),
				Offset: listOffset,
				Limit:  listLimit,
			}
			if listClaimType != "" {
				filter.ClaimType = model.ParseClaimType(listClaimType)
			}
			claims, err := a.pipeline.ListClaims(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(claims)
		})
	},
}

// similarCmd represents the similar command
var similarCmd = &cobra.Command{
	Use:   "similar [text]",
	Short: "Find stored claims semantically similar to text",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args)
		if err != nil {
			return err
		}
		return withIndexedApp(func(ctx context.Context, a *app) error {
			return printJSON(a.pipeline.Similar(ctx, text, similarK, similarThreshold))
		})
	},
}

func init() {
	rootCmd.AddCommand(claimCmd, claimsCmd, similarCmd)
	claimsCmd.AddCommand(claimsListCmd)

	claimsListCmd.Flags().StringVar(&listClaimType, "type", "", "claim type: health, politics, general, science, business")
	claimsListCmd.Flags().StringVar(&listStatus, "status", "", "status: pending, processing, verified, error")
	claimsListCmd.Flags().IntVar(&listOffset, "offset", 0, "claims to skip")
	claimsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum claims to return")

	similarCmd.Flags().IntVarP(&similarK, "k", "k", 10, "maximum results")
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0.8, "minimum similarity (0-1)")
}
