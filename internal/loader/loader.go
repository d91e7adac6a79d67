// Package loader extracts text from PDF files on disk, page by page.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"scholarag/internal/chunker"
	"scholarag/internal/domain"
)

// Document is one extracted PDF: the full text plus per-page texts for
// page attribution.
type Document struct {
	Name       string
	Text       string
	Pages      []chunker.PageText
	TotalPages int
}

// Loader reads every PDF in a directory.
type Loader struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Loader {
	return &Loader{dir: dir, log: log}
}

// LoadAll extracts every *.pdf under the directory in name order.
// Files that fail to parse are logged and skipped; a directory that
// yields no documents at all is an error.
func (l *Loader) LoadAll(ctx context.Context) ([]Document, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", l.dir, err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}

		doc, err := loadOne(path)
		if err != nil {
			l.log.Warn("skipping unreadable document",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		l.log.Info("document loaded",
			zap.String("name", doc.Name),
			zap.Int("pages", doc.TotalPages),
			zap.Int("text_length", len(doc.Text)))
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no readable documents in %s: %w", l.dir, domain.ErrNoDocuments)
	}
	return docs, nil
}

func loadOne(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]chunker.PageText, 0, total)
	var full strings.Builder

	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One corrupt page should not sink the whole document.
			continue
		}
		pages = append(pages, chunker.PageText{Number: i, Text: text})
		full.WriteString(text)
		full.WriteString("\n")
	}

	if full.Len() == 0 {
		return Document{}, fmt.Errorf("no extractable text in %s", path)
	}

	return Document{
		Name:       filepath.Base(path),
		Text:       full.String(),
		Pages:      pages,
		TotalPages: total,
	}, nil
}
