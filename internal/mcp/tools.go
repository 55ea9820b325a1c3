// ABOUTME: MCP tool definitions and registration for the document QA server
// ABOUTME: Exposes ingestion, question answering, upload-and-ask and health over stdio
package mcp

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harper/docqa/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config holds the non-service settings handlers need
type Config struct {
	DocsDir string
	Logger  *log.Logger
}

// NewHandlers creates handlers without registering them
func NewHandlers(ingester Ingester, asker Asker, health HealthChecker, cfg Config) *Handlers {
	return &Handlers{
		ingester:   ingester,
		asker:      asker,
		health:     health,
		docsDir:    cfg.DocsDir,
		logger:     logging.Component(cfg.Logger, "mcp"),
		shutdownWg: &sync.WaitGroup{},
	}
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, ingester Ingester, asker Asker, health HealthChecker, cfg Config) *Handlers {
	handlers := NewHandlers(ingester, asker, health, cfg)

	server.AddTool(mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest one document (text, markdown, PDF or image) into the knowledge base. Files whose content is already present are skipped.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the document on the server's filesystem",
				},
			},
			Required: []string{"path"},
		},
	}, handlers.IngestDocument)

	server.AddTool(mcp.Tool{
		Name:        "ingest_folder",
		Description: "Recursively ingest every file in a folder. Failures are reported per file and do not stop the walk.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Folder to ingest (default: the configured documents directory)",
				},
			},
		},
	}, handlers.IngestFolder)

	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question using only the ingested documents, citing source and page.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
				"file_hash": map[string]interface{}{
					"type":        "string",
					"description": "Optional content hash restricting retrieval to one document",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	server.AddTool(mcp.Tool{
		Name:        "upload_and_ask",
		Description: "Ingest an uploaded document and answer a question about that document only.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Original file name; its extension selects the extractor",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Base64-encoded file content",
				},
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
			},
			Required: []string{"filename", "content", "question"},
		},
	}, handlers.UploadAndAsk)

	server.AddTool(mcp.Tool{
		Name:        "health",
		Description: "Report the vector backend and its collections.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Health)

	return handlers
}
