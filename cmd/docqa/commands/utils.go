// ABOUTME: Shared helpers for CLI commands
// ABOUTME: App construction from config and flags, output formatting helpers
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/config"
	"github.com/harper/docqa/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// newLogger builds a logger honouring --verbose and --quiet over LOG_LEVEL
func newLogger(w io.Writer, configured string) *log.Logger {
	level := configured
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(w, level)
}

// loadConfig reads .env then the layered configuration
func loadConfig() (*config.Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openApp wires the application with logs going to stderr
func openApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*app.App, error) {
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

// validateFormat rejects unknown --format values
func validateFormat(format string) error {
	switch format {
	case "auto", "json", "table":
		return nil
	}
	return fmt.Errorf("unknown format %q (want auto, json or table)", format)
}

func wantJSON() bool {
	return outputFormat == "json"
}

func writeJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(w, "%s\n", jsonData)
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// shortHash abbreviates a content hash for tables
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
