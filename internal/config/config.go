// ABOUTME: Centralized configuration for document ingestion and question answering
// ABOUTME: Loads defaults, then an optional YAML file, then environment variables, with validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Vector backends
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
	BackendCharm  = "charm"
)

// DefaultFile is checked in the working directory when DOCQA_CONFIG is unset
const DefaultFile = "docqa.yaml"

// Config holds all configuration for the pipeline
type Config struct {
	// Filesystem
	DocsDir    string
	StoreDir   string
	Collection string

	// Chunking and retrieval
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Embedding backend
	EmbedModel      string
	EmbedBaseURL    string
	EmbedAPIKey     string
	EmbedDimensions int
	EmbedBatchSize  int

	// Generation backend
	LLMProvider   string
	LLMBaseURL    string
	LLMModel      string
	LLMAPIKey     string
	OllamaBaseURL string

	// Network behaviour
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Vector store
	VectorBackend string
	QdrantAddr    string
	QdrantAPIKey  string
	QdrantTLS     bool
	CharmHost     string
	CharmDBName   string

	// Ingestion
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration
	IngestWorkers int

	// Recognition
	OCRLang      string
	TesseractBin string
	PdftoppmBin  string
	OCRDPI       int

	LogLevel string
}

// Load reads configuration from the optional YAML file and environment variables
func Load() (*Config, error) {
	path := os.Getenv("DOCQA_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	file, err := readFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		file = nil
	}

	src := source{file: file}
	llmBaseURL := src.getString("LLM_BASE_URL", "http://127.0.0.1:1234/v1")
	llmAPIKey := src.getString("LLM_API_KEY", "lm-studio")

	cfg := &Config{
		DocsDir:         src.getString("DOCS_DIR", "documents"),
		StoreDir:        src.getString("STORE_DIR", "store"),
		Collection:      src.getString("COLLECTION", "rag_docs"),
		ChunkSize:       src.getInt("CHUNK_SIZE", 800),
		ChunkOverlap:    src.getInt("CHUNK_OVERLAP", 100),
		TopK:            src.getInt("TOP_K", 5),
		EmbedModel:      src.getString("EMBED_MODEL", "BAAI/bge-m3"),
		EmbedBaseURL:    src.getString("EMBED_BASE_URL", llmBaseURL),
		EmbedAPIKey:     src.getString("EMBED_API_KEY", llmAPIKey),
		EmbedDimensions: src.getInt("EMBED_DIMENSIONS", 0),
		EmbedBatchSize:  src.getInt("EMBED_BATCH_SIZE", 32),
		LLMProvider:     strings.ToUpper(src.getString("LLM_PROVIDER", "OPENAI_COMP")),
		LLMBaseURL:      llmBaseURL,
		LLMModel:        src.getString("LLM_MODEL", "meta-llama-3.1-8b-instruct-hf"),
		LLMAPIKey:       llmAPIKey,
		OllamaBaseURL:   src.getString("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		Timeout:         src.getDuration("REQUEST_TIMEOUT", 120*time.Second),
		MaxRetries:      src.getInt("MAX_RETRIES", 3),
		RetryDelay:      src.getDuration("RETRY_DELAY", 2*time.Second),
		VectorBackend:   strings.ToLower(src.getString("VECTOR_BACKEND", BackendSQLite)),
		QdrantAddr:      src.getString("QDRANT_ADDR", "localhost:6334"),
		QdrantAPIKey:    src.getString("QDRANT_API_KEY", ""),
		QdrantTLS:       src.getBool("QDRANT_TLS", false),
		CharmHost:       src.getString("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:     src.getString("CHARM_DB", "docqa"),
		RedisAddr:       src.getString("REDIS_ADDR", ""),
		RedisPassword:   src.getString("REDIS_PASSWORD", ""),
		LockTTL:         src.getDuration("LOCK_TTL", 5*time.Minute),
		IngestWorkers:   src.getInt("INGEST_WORKERS", 4),
		OCRLang:         src.getString("OCR_LANG", "eng"),
		TesseractBin:    src.getString("TESSERACT_BIN", "tesseract"),
		PdftoppmBin:     src.getString("PDFTOPPM_BIN", "pdftoppm"),
		OCRDPI:          src.getInt("OCR_DPI", 300),
		LogLevel:        src.getString("LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be 0 to CHUNK_SIZE-1, got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.IngestWorkers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1, got %d", c.IngestWorkers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	switch c.VectorBackend {
	case BackendSQLite, BackendQdrant, BackendCharm:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be one of sqlite, qdrant, charm, got %q", c.VectorBackend)
	}
	return nil
}

// EnsureDirs creates the documents and store directories if absent
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DocsDir, c.StoreDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// readFile parses a flat YAML mapping. Keys are matched case-insensitively
// against environment variable names, so chunk_size sets CHUNK_SIZE.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

// source resolves a key from the environment first, then the config file
type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

// Helper functions
func (s source) getString(key, defaultVal string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (s source) getBool(key string, defaultVal bool) bool {
	v := s.lookup(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func (s source) getInt(key string, defaultVal int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func (s source) getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
