// ABOUTME: CLI command to ingest files and folders into the vector store
// ABOUTME: Reports per-file status and fails when any file failed
package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/models"
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Ingest documents",
		Long: `Ingest documents into the vector store.

Accepts files and folders. Folders are walked recursively. With no
arguments the configured documents directory (DOCS_DIR) is ingested.
Files whose content was already ingested are skipped.

Examples:
  docqa ingest
  docqa ingest report.pdf scans/
  docqa ingest --format json documents/`,
		RunE: runIngest,
	}

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	paths := args
	if len(paths) == 0 {
		paths = []string{cfg.DocsDir}
	}

	report := &models.FolderReport{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			report.Record(models.IngestResult{
				Status: models.StatusFailed,
				Path:   path,
				Source: path,
				Error:  err.Error(),
			})
			continue
		}

		if info.IsDir() {
			folder, err := a.Pipeline.IngestFolder(ctx, path)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			for _, res := range folder.Files {
				report.Record(res)
			}
			continue
		}

		// Per-file errors are carried in the result
		res, _ := a.Pipeline.IngestPath(ctx, path)
		report.Record(res)
	}

	if wantJSON() {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printReport(cmd, report)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", report.Failed)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *models.FolderReport) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STATUS\tSOURCE\tADDED\tHASH\tERROR\n")
	fmt.Fprintf(w, "------\t------\t-----\t----\t-----\n")
	for _, res := range report.Files {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			res.Status,
			truncate(res.Source, 30),
			res.Added,
			shortHash(res.FileHash),
			truncate(res.Error, 50))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d file(s): %d chunk(s) added, %d skipped, %d failed\n",
			len(report.Files), report.Added, report.Skipped, report.Failed)
	}
}
