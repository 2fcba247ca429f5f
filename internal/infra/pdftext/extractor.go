package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/yanqian/paper-summarizer/internal/domain/paper"
)

const pageSeparator = "\n\n"

// pageSource abstracts the parsed document so page iteration can be tested
// without real PDF fixtures.
type pageSource interface {
	NumPage() int
	PageText(num int) (string, error)
}

// Extractor reads plain text from PDF files.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor builds a PDF text extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "pdftext.extractor")}
}

// Extract reads the first maxPages pages of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string, maxPages int) (out paper.Extraction, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return paper.Extraction{}, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	return e.extractPages(ctx, readerSource{reader: reader}, maxPages)
}

func (e *Extractor) extractPages(ctx context.Context, src pageSource, maxPages int) (paper.Extraction, error) {
	total := src.NumPage()
	limit := total
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}

	parts := make([]string, 0, limit)
	for num := 1; num <= limit; num++ {
		if err := ctx.Err(); err != nil {
			return paper.Extraction{}, err
		}
		text, err := src.PageText(num)
		if err != nil {
			return paper.Extraction{}, fmt.Errorf("page %d: %w", num, err)
		}
		if strings.TrimSpace(text) == "" {
			e.logger.Debug("page has no text", "page", num)
			continue
		}
		parts = append(parts, text)
	}

	return paper.Extraction{
		Text:       strings.Join(parts, pageSeparator),
		Pages:      limit,
		TotalPages: total,
	}, nil
}

type readerSource struct {
	reader *pdf.Reader
}

func (s readerSource) NumPage() int {
	return s.reader.NumPage()
}

func (s readerSource) PageText(num int) (string, error) {
	page := s.reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

var _ paper.Extractor = (*Extractor)(nil)
