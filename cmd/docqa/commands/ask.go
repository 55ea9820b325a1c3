// ABOUTME: CLI command to answer a question from ingested documents
// ABOUTME: Optionally scopes retrieval to one file hash or to a freshly uploaded file
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
)

var (
	askFileHash string
	askUpload   string
	askTopK     int
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long: `Answer a question using only the ingested documents.

The answer cites the source file and page of every fact it uses.
Use --file-hash to restrict retrieval to one document, or --upload
to ingest a file first and ask about it alone.

Examples:
  docqa ask "What was revenue in Q3?"
  docqa ask --file-hash 3b5d... "Who signed the contract?"
  docqa ask --upload invoice.pdf "What is the total due?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askFileHash, "file-hash", "", "Restrict retrieval to this content hash")
	cmd.Flags().StringVar(&askUpload, "upload", "", "Ingest this file and ask about it only")
	cmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of chunks to retrieve (default TOP_K)")
	cmd.MarkFlagsMutuallyExclusive("file-hash", "upload")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}
	if cmd.Flags().Changed("top-k") {
		if err := validatePositiveInt(askTopK, "top-k"); err != nil {
			return err
		}
	}

	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if askTopK > 0 {
		cfg.TopK = askTopK
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if askUpload != "" {
		f, err := os.Open(askUpload)
		if err != nil {
			return fmt.Errorf("opening upload: %w", err)
		}
		defer f.Close()

		out, err := a.QA.UploadAndAsk(ctx, filepath.Base(askUpload), f, question)
		if err != nil {
			return fmt.Errorf("asking: %w", err)
		}
		if wantJSON() {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %d chunk(s) added)\n\n",
				out.Ingest.Status, out.Ingest.Source, shortHash(out.Ingest.FileHash), out.Ingest.Added)
		}
		printAnswer(cmd, out.Answer)
		return nil
	}

	answer, err := a.QA.Ask(ctx, question, askFileHash)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}
	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), answer)
	}
	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, answer *models.Answer) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.TrimSpace(answer.Answer))
	if quiet || len(answer.Sources) == 0 {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nSources:\n")
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tSOURCE\tPAGE\tCHUNK\tHASH\n")
	for i, src := range answer.Sources {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", i+1, truncate(src.Source, 40), src.Page, src.ChunkOnPage, shortHash(src.FileHash))
	}
	w.Flush()
}
