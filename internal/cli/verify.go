package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
	"github.com/ppiankov/verifact/internal/worker"
)

var (
	forceVerify  bool
	pendingLimit int

	reviewerID     string
	reviewApprove  bool
	reviewOverride string
	reviewNotes    string

	staleAfter time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [claim-id]",
	Short: "Retrieve evidence for a claim and record a verdict",
	Long: `Verify retrieves evidence from every configured source, asks the model for
a verdict grounded in that evidence and stores it. A claim that already has a
verdict returns it unless --force is given.

With --pending N the newest pending claims (up to N) are verified in
parallel instead of a single claim.

High-harm verdicts (harm score >= 70) raise an alert.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pendingLimit > 0 {
			return withApp(verifyPending)
		}
		if len(args) != 1 {
			return errors.New("a claim id is required unless --pending is set")
		}
		return withApp(func(ctx context.Context, a *app) error {
			res, err := a.pipeline.Verify(ctx, args[0], forceVerify)
			if err != nil {
				return err
			}
			if res.Alert != nil {
				fmt.Fprintf(os.Stderr, "⚠️  %s alert raised: %s\n", res.Alert.Severity, res.Alert.Title)
			}
			return printJSON(res)
		})
	},
}

func verifyPending(ctx context.Context, a *app) error {
	claims, err := a.pipeline.ListClaims(ctx, store.ClaimFilter{Status: model.StatusPending, Limit: pendingLimit})
	if err != nil {
		return err
	}
	ids := make([]string, len(claims))
	for i, c := range claims {
		ids[i] = c.ID
	}
	fmt.Fprintf(os.Stderr, "⚙️  Verifying %d pending claims with %d workers...\n", len(ids), a.cfg.Worker.Concurrency)

	results := worker.NewBatchProcessor(a.pipeline, a.pipeline, a.cfg.Worker.Concurrency).VerifyClaims(ctx, ids)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.ClaimID, r.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", r.ClaimID, r.Label)
	}
	return printJSON(results)
}

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <verdict-id>",
	Short: "Record a human review of a verdict",
	Long: `Review marks a verdict as human reviewed. The reviewer may override the
verdict label, attach notes and publish it. A reviewed verdict stays reviewed.

Example:
  verifact review 3f1c... --reviewer alice --override False --notes "NASA archive" --approve`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			v, err := a.pipeline.Review(ctx, args[0], model.Review{
				ReviewerID:      reviewerID,
				Approve:         reviewApprove,
				OverrideVerdict: reviewOverride,
				Notes:           reviewNotes,
			})
			if err != nil {
				return err
			}
			return printJSON(v)
		})
	},
}

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair claims left in processing by an interrupted verification",
	Long: `Reconcile finds claims stuck in processing for longer than --stale-after.
A claim whose verdict was already written is linked to it and marked verified;
any other claim is returned to pending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			after := staleAfter
			if after <= 0 {
				after = time.Duration(a.cfg.Worker.StaleAfterMinute) * time.Minute
			}
			res, err := a.pipeline.Reconcile(ctx, after)
			if err != nil {
				return err
			}
			return printJSON(res)
		})
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd, reviewCmd, reconcileCmd)

	verifyCmd.Flags().BoolVar(&forceVerify, "force", false, "re-verify even when a verdict exists")
	verifyCmd.Flags().IntVar(&pendingLimit, "pending", 0, "verify up to N pending claims in parallel")

	reviewCmd.Flags().StringVar(&reviewerID, "reviewer", "", "reviewer id (required)")
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "publish the verdict")
	reviewCmd.Flags().StringVar(&reviewOverride, "override", "", "replace the verdict label (True, False, Misleading, Partially True, Unverified)")
	reviewCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	_ = reviewCmd.MarkFlagRequired("reviewer")

	reconcileCmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "age after which a processing claim counts as stuck (default worker.stale_after_minutes)")
}
