// ABOUTME: CLI command printing the content hash used to identify documents
// ABOUTME: The hash is what ask --file-hash expects
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docqa/internal/hasher"
)

// NewHashCmd creates the hash command
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Print document content hashes",
		Long: `Print the SHA-256 content hash of each file.

Documents are identified by this hash, so two files with identical
bytes share one hash. Pass it to "docqa ask --file-hash".`,
		Args: cobra.MinimumNArgs(1),
		RunE: runHash,
	}

	return cmd
}

func runHash(cmd *cobra.Command, args []string) error {
	type entry struct {
		Path     string `json:"path"`
		FileHash string `json:"file_hash"`
	}

	var entries []entry
	for _, path := range args {
		h, err := hasher.HashFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{Path: path, FileHash: h})
	}

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), entries)
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.FileHash, e.Path)
	}
	return nil
}
