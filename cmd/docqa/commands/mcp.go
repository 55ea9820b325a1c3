// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Lets LLM agents ingest documents and ask questions via stdio
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docqa as an MCP (Model Context Protocol) server, enabling
LLM agents to ingest documents and ask grounded questions via stdio.

Tools: ingest_document, ingest_folder, ask_question, upload_and_ask, health.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  docqa mcp

  # Configure in the client's config file:
  # {
  #   "mcpServers": {
  #     "docqa": {
  #       "command": "docqa",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Graceful shutdown on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stdout carries the protocol, so logs go to stderr
	a, err := openApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	return ServeMCP(ctx, a, versionInfo.Version)
}
