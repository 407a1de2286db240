package document

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source supplies pages from a document corpus.
type Source interface {
	// Pages returns every page of every document in the corpus, ordered by
	// document name and page number.
	Pages(ctx context.Context) ([]Page, error)
}

// textExtensions lists the file extensions the filesystem source reads.
// PDF and other rich formats must be pre-extracted to text by an external
// tool; docsift only consumes the result.
var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

// FSSource reads a directory of extracted text documents.
// A form feed (\f) in a file marks a page break, matching the convention
// of common PDF-to-text extractors; files without form feeds are a single
// page.
type FSSource struct {
	dir string
}

// NewFSSource creates a filesystem source rooted at dir.
func NewFSSource(dir string) *FSSource {
	return &FSSource{dir: dir}
}

// Pages implements Source.
func (s *FSSource) Pages(ctx context.Context) ([]Page, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("document directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document directory: %s is not a directory", s.dir)
	}

	var files []string
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories (.git, .docsift, ...).
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if textExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	sort.Strings(files)

	var pages []Page
	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		name := filepath.Base(path)
		brand := BrandFromFilename(name)
		for i, text := range strings.Split(string(data), "\f") {
			pages = append(pages, Page{
				Text:           text,
				PageNumber:     i + 1,
				SourceDocument: name,
				Brand:          brand,
			})
		}
	}

	slog.Debug("documents_loaded",
		slog.Int("files", len(files)),
		slog.Int("pages", len(pages)))

	return pages, nil
}

var _ Source = (*FSSource)(nil)
