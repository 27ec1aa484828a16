package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/pipeline"
)

var (
	feedbackType     string
	feedbackEmail    string
	feedbackLinks    []string
	feedbackStatus   string
	feedbackReviewer string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Submit and moderate reader corrections and appeals",
}

var feedbackSubmitCmd = &cobra.Command{
	Use:   "submit <claim-id> [content]",
	Short: "Submit feedback against a claim",
	Long: `Submit a correction, appeal or additional evidence for a claim. Content is
read from stdin when omitted.

Example:
  verifact feedback submit 3f1c... --type correction --link https://nasa.gov/apollo "The archive shows..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readText(args[1:])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			f, err := a.pipeline.SubmitFeedback(ctx, model.Feedback{
				ClaimID:         args[0],
				FeedbackType:    model.FeedbackType(feedbackType),
				Content:         content,
				UserEmail:       feedbackEmail,
				SupportingLinks: feedbackLinks,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ %s\n", pipeline.FeedbackSubmittedMessage)
			return printJSON(f)
		})
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list <claim-id>",
	Short: "List feedback for a claim, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			items, err := a.pipeline.Feedback(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(struct {
				ClaimID  string           `json:"claim_id"`
				Feedback []model.Feedback `json:"feedback"`
				Total    int              `json:"total"`
			}{args[0], items, len(items)})
		})
	},
}

var feedbackResolveCmd = &cobra.Command{
	Use:   "resolve <feedback-id>",
	Short: "Close a feedback item as reviewed, accepted or rejected",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if err := a.pipeline.ResolveFeedback(ctx, args[0], model.FeedbackStatus(feedbackStatus), feedbackReviewer); err != nil {
				return err
			}
			fmt.Printf("✓ Feedback %s marked %s\n", args[0], feedbackStatus)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.AddCommand(feedbackSubmitCmd, feedbackListCmd, feedbackResolveCmd)

	feedbackSubmitCmd.Flags().StringVar(&feedbackType, "type", "correction", "correction, appeal, additional_evidence, other")
	feedbackSubmitCmd.Flags().StringVar(&feedbackEmail, "email", "", "contact email")
	feedbackSubmitCmd.Flags().StringSliceVar(&feedbackLinks, "link", nil, "supporting link (repeatable)")

	feedbackResolveCmd.Flags().StringVar(&feedbackStatus, "status", "reviewed", "reviewed, accepted, rejected")
	feedbackResolveCmd.Flags().StringVar(&feedbackReviewer, "reviewer", "", "reviewer id (required)")
	_ = feedbackResolveCmd.MarkFlagRequired("reviewer")
}
