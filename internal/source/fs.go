package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
)

// FileSource loads scraped corpus files (*.txt, *.md) from a data
// directory, one Document per file. Unreadable or empty files are logged
// and skipped; a bad file never aborts the load.
type FileSource struct {
	dir    string
	name   string
	logger *slog.Logger
}

// NewFileSource creates a filesystem connector over dir. name identifies
// the connector in citations; empty selects "fs:<dir base>".
func NewFileSource(dir, name string, logger *slog.Logger) *FileSource {
	if name == "" {
		name = "fs:" + filepath.Base(dir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{dir: dir, name: name, logger: logger}
}

// Name identifies this connector in Document.Source and citations.
func (s *FileSource) Name() string {
	return s.name
}

// Documents reads every .txt and .md file under the directory.
func (s *FileSource) Documents(ctx context.Context) ([]corpus.Document, error) {
	var docs []corpus.Document

	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		if strings.TrimSpace(string(raw)) == "" {
			s.logger.Warn("skipping empty file", "path", path)
			return nil
		}

		info, err := d.Info()
		fetchedAt := time.Now().UTC()
		if err == nil {
			fetchedAt = info.ModTime().UTC()
		}

		docs = append(docs, corpus.Document{
			ID:        uuid.New().String(),
			Source:    s.name,
			URL:       "file://" + path,
			RawText:   string(raw),
			FetchedAt: fetchedAt,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.dir, err)
	}

	s.logger.Info("loaded documents", "source", s.name, "count", len(docs))
	return docs, nil
}
