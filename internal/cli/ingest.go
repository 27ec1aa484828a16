package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifact/internal/pipeline"
)

var (
	ingestSource     string
	ingestSourceType string
	ingestMetadata   map[string]string
	ingestVerify     bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [text]",
	Short: "Detect and store a claim from free text",
	Long: `Ingest runs claim detection on free text. When a checkable claim is found
it is embedded, indexed for similarity search and stored as pending.

Use "-" or no argument to read the text from stdin.

Example:
  verifact ingest "The moon landing was faked in 1969"
  verifact ingest --source https://example.com/post/1 --source-type social --verify "..."
  echo "Vaccines cause autism" | verifact ingest`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "where the text came from (URL, handle, feed)")
	ingestCmd.Flags().StringVar(&ingestSourceType, "source-type", "manual", "manual, twitter, facebook, news, rss, social, batch")
	ingestCmd.Flags().StringToStringVar(&ingestMetadata, "meta", nil, "metadata key=value pairs")
	ingestCmd.Flags().BoolVar(&ingestVerify, "verify", false, "verify the claim right after ingesting it")
}

func readText(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	text, err := readText(args)
	if err != nil {
		return err
	}
	return withIndexedApp(func(ctx context.Context, a *app) error {
		res, err := a.pipeline.Ingest(ctx, pipeline.IngestRequest{
			Text:       text,
			Source:     ingestSource,
			SourceType: ingestSourceType,
			Metadata:   ingestMetadata,
		})
		if err != nil {
			return err
		}
		if !res.IsClaim || !ingestVerify {
			return printJSON(res)
		}
		verified, err := a.pipeline.Verify(ctx, res.ClaimID, false)
		if err != nil {
			return err
		}
		return printJSON(struct {
			*pipeline.IngestResult
			Verification *pipeline.VerifyResult `json:"verification"`
		}{res, verified})
	})
}
