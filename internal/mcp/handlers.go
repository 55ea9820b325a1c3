// ABOUTME: MCP tool handler implementations for the document QA server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/app"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/qa"
	"github.com/mark3labs/mcp-go/mcp"
)

// Ingester ingests files and folders
type Ingester interface {
	IngestPath(ctx context.Context, path string) (models.IngestResult, error)
	IngestFolder(ctx context.Context, dir string) (*models.FolderReport, error)
}

// Asker answers questions
type Asker interface {
	Ask(ctx context.Context, question, fileHash string) (*models.Answer, error)
	UploadAndAsk(ctx context.Context, filename string, r io.Reader, question string) (*qa.UploadAnswer, error)
}

// HealthChecker reports backend status
type HealthChecker interface {
	Health(ctx context.Context) (*app.Health, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	ingester   Ingester
	asker      Asker
	health     HealthChecker
	docsDir    string
	logger     *log.Logger
	shutdownWg *sync.WaitGroup // in-flight tool calls
}

// IngestDocument handles the ingest_document tool
func (h *Handlers) IngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil || strings.TrimSpace(path) == "" {
		return mcp.NewToolResultError("path argument is required and must be a string"), nil
	}

	h.shutdownWg.Add(1)
	defer h.shutdownWg.Done()

	res, err := h.ingester.IngestPath(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"skipped":   res.Skipped(),
		"added":     res.Added,
		"file_hash": res.FileHash,
		"source":    res.Source,
		"status":    res.Status,
	})
}

// IngestFolder handles the ingest_folder tool
func (h *Handlers) IngestFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := request.GetString("path", "")
	if strings.TrimSpace(dir) == "" {
		dir = h.docsDir
	}
	if dir == "" {
		return mcp.NewToolResultError("path argument is required when no documents directory is configured"), nil
	}

	h.shutdownWg.Add(1)
	defer h.shutdownWg.Done()

	report, err := h.ingester.IngestFolder(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("folder ingest failed: %v", err)), nil
	}
	return jsonResult(report)
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}
	fileHash := request.GetString("file_hash", "")

	h.shutdownWg.Add(1)
	defer h.shutdownWg.Done()

	answer, err := h.asker.Ask(ctx, question, fileHash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}
	return jsonResult(answer)
}

// UploadAndAsk handles the upload_and_ask tool
func (h *Handlers) UploadAndAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil || strings.TrimSpace(filename) == "" {
		return mcp.NewToolResultError("filename argument is required and must be a string"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a base64 string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("content is not valid base64: %v", err)), nil
	}

	h.shutdownWg.Add(1)
	defer h.shutdownWg.Done()

	out, err := h.asker.UploadAndAsk(ctx, filename, bytes.NewReader(data), question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload and ask failed: %v", err)), nil
	}
	return jsonResult(out)
}

// Health handles the health tool
func (h *Handlers) Health(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.health.Health(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("health check failed: %v", err)), nil
	}
	return jsonResult(status)
}

// Shutdown waits for in-flight tool calls to finish
func (h *Handlers) Shutdown() {
	h.logger.Debug("waiting for in-flight tool calls")
	h.shutdownWg.Wait()
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
