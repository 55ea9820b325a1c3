// ABOUTME: Shared MCP stdio serving loop used by the mcp command and the server binary
// ABOUTME: Waits for a shutdown signal or server exit, drains handlers, closes the app
package commands

import (
	"context"
	"fmt"

	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServeMCP serves the docqa tools on stdio until ctx is done or the server exits.
// It takes ownership of a and closes it.
func ServeMCP(ctx context.Context, a *app.App, version string) error {
	server := mcpserver.NewMCPServer("docqa", version)

	handlers := mcp.RegisterTools(server, a.Pipeline, a.QA, a, mcp.Config{
		DocsDir: a.Config.DocsDir,
		Logger:  a.Logger,
	})

	a.Logger.Info("MCP server starting on stdio", "collection", a.Config.Collection)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received, gracefully shutting down")
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
		}
	}

	handlers.Shutdown()
	if closeErr := a.Close(); closeErr != nil {
		a.Logger.Warn("error closing store", "err", closeErr)
	}
	a.Logger.Info("shutdown complete")
	return err
}
