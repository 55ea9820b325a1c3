// ABOUTME: Root CLI command with global flags for docqa
// ABOUTME: Registers subcommands and shared verbosity and output format flags
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ██████╗  ██████╗  ██████╗ ██████╗  █████╗
 ██╔══██╗██╔═══██╗██╔════╝██╔═══██╗██╔══██╗
 ██║  ██║██║   ██║██║     ██║   ██║███████║
 ██║  ██║██║   ██║██║     ██║▄▄ ██║██╔══██║
 ██████╔╝╚██████╔╝╚██████╗╚██████╔╝██║  ██║
 ╚═════╝  ╚═════╝  ╚═════╝ ╚══▀▀═╝ ╚═╝  ╚═╝
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about your documents",
		Long: banner + `
Ingest text, markdown, PDF and image documents into a vector store
and answer questions grounded only in their content, with source and
page citations.

Documents are deduplicated by content hash, so re-ingesting a folder
only processes new or changed files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json, table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewAskCmd(),
		NewHashCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
