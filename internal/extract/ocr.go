// ABOUTME: Tesseract-backed recognizer driving the tesseract and pdftoppm command line tools
// ABOUTME: PDFs are rasterized into a temporary directory which is always removed
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/harper/docqa/internal/models"
)

// TesseractConfig configures the command line recognizer
type TesseractConfig struct {
	TesseractBin string
	PdftoppmBin  string
	Language     string
	DPI          int
}

// Tesseract recognizes text by shelling out to tesseract
type Tesseract struct {
	cfg TesseractConfig
}

// NewTesseract creates a recognizer, filling unset fields with defaults
func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.TesseractBin == "" {
		cfg.TesseractBin = "tesseract"
	}
	if cfg.PdftoppmBin == "" {
		cfg.PdftoppmBin = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Tesseract{cfg: cfg}
}

// RecognizeImage runs tesseract on one image and returns its stdout
func (t *Tesseract) RecognizeImage(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.cfg.TesseractBin, path, "stdout", "-l", t.cfg.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

var pageImage = regexp.MustCompile(`-(\d+)\.png$`)

// RecognizePDF rasterizes every page with pdftoppm and recognizes each image
func (t *Tesseract) RecognizePDF(ctx context.Context, path string) ([]models.Page, error) {
	dir, err := os.MkdirTemp("", "docqa-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create raster dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var stderr bytes.Buffer
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, t.cfg.PdftoppmBin, "-r", strconv.Itoa(t.cfg.DPI), "-png", path, prefix)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	images, err := rasterizedPages(dir)
	if err != nil {
		return nil, err
	}

	pages := make([]models.Page, 0, len(images))
	for _, img := range images {
		text, err := t.RecognizeImage(ctx, img.path)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", img.number, err)
		}
		pages = append(pages, models.Page{Number: img.number, Text: text})
	}
	return pages, nil
}

type rasterPage struct {
	number int
	path   string
}

// rasterizedPages lists pdftoppm output ordered by page number. pdftoppm
// zero-pads the number depending on the page count, so order numerically.
func rasterizedPages(dir string) ([]rasterPage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list raster dir: %w", err)
	}

	var pages []rasterPage
	for _, entry := range entries {
		m := pageImage.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, rasterPage{number: n, path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].number < pages[j].number
	})
	return pages, nil
}
