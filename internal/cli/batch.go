package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/worker"
)

var (
	concurrency  int
	batchVerify  bool
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Ingest many texts from a file in parallel",
	Long: `Batch ingests a file of texts concurrently:
- Read one text per line (blank lines and # comments are skipped)
- Run claim detection with a bounded worker pool
- Optionally verify every detected claim

Results are printed as JSON in input order.

Example:
  verifact batch posts.txt
  verifact batch posts.txt --verify --concurrency 8 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default worker.concurrency)")
	batchCmd.Flags().BoolVar(&batchVerify, "verify", false, "verify every detected claim")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	return withIndexedApp(func(ctx context.Context, a *app) error {
		workers := concurrency
		if workers <= 0 {
			workers = a.cfg.Worker.Concurrency
		}
		ctx, cancel := context.WithTimeout(ctx, batchTimeout)
		defer cancel()

		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "  verifact Batch Ingest\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
		fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
		fmt.Fprintf(os.Stderr, "  Verify:       %v\n", batchVerify)
		fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
		fmt.Fprintf(os.Stderr, "\n")

		processor := worker.NewBatchProcessor(a.pipeline, a.pipeline, workers)
		results, err := processor.IngestFile(ctx, file, batchVerify)
		if err != nil {
			return fmt.Errorf("process file: %w", err)
		}

		var claims, skipped, failures int
		for _, r := range results {
			switch {
			case r.Err != nil:
				failures++
				fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", r.Index+1, r.Err)
			case r.Skipped:
				skipped++
			default:
				claims++
				if r.Label != "" {
					fmt.Fprintf(os.Stderr, "✓ %s: %s\n", r.ClaimID, r.Label)
				} else {
					fmt.Fprintf(os.Stderr, "✓ %s\n", r.ClaimID)
				}
			}
		}

		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "  Batch Complete\n")
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "  Total:     %d texts\n", len(results))
		fmt.Fprintf(os.Stderr, "  Claims:    %d\n", claims)
		fmt.Fprintf(os.Stderr, "  No claim:  %d\n", skipped)
		fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
		fmt.Fprintf(os.Stderr, "\n")

		return printJSON(results)
	})
}
