// ABOUTME: Recursive folder ingestion with bounded concurrency
// ABOUTME: Every file gets a result; one failure never stops the walk
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/harper/docqa/internal/models"
	"golang.org/x/sync/errgroup"
)

// IngestFolder ingests every regular file under dir. Only a failure to walk
// the root is returned as an error; per-file failures land in the report.
func (p *Pipeline) IngestFolder(ctx context.Context, dir string) (*models.FolderReport, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]models.IngestResult, len(files))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i], _ = p.fail(models.IngestResult{Path: path, Source: filepath.Base(path)}, err)
				return nil
			}
			results[i], _ = p.IngestPath(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.FolderReport{}
	for _, res := range results {
		report.Record(res)
	}

	p.logger.Info("folder ingested", "dir", dir, "files", len(files), "added", report.Added, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// listFiles walks dir and returns regular files in lexical walk order
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// Unreadable subtrees are skipped
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to walk %s: %v", models.ErrIO, dir, err)
	}
	return files, nil
}
