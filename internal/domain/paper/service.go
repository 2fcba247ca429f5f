package paper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yanqian/paper-summarizer/internal/domain/summarizer"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
	"github.com/yanqian/paper-summarizer/pkg/telemetry"
	"github.com/yanqian/paper-summarizer/pkg/util"
)

var tracer = telemetry.Tracer("paper")

// Public failure messages.
const (
	MsgMissingID         = "Paper id is required"
	MsgPDFNotFound       = "PDF not found"
	MsgFetchFailed       = "Failed to fetch PDF"
	MsgExtractionFailed  = "Failed to extract text"
	MsgMaterializeFailed = "Failed to store PDF"
)

// Service retrieves papers and summarizes their text.
type Service interface {
	Summarize(ctx context.Context, paperID string) (Summary, error)
	FetchPDF(ctx context.Context, paperID string) (Document, error)
}

// Fetcher downloads a paper PDF. A missing paper yields an error wrapping
// apperrors.ErrNotFound.
type Fetcher interface {
	FetchPDF(ctx context.Context, paperID string) ([]byte, error)
}

// Extractor reads text from the first maxPages pages of the PDF at path.
type Extractor interface {
	Extract(ctx context.Context, path string, maxPages int) (Extraction, error)
}

type service struct {
	cfg        Config
	fetcher    Fetcher
	extractor  Extractor
	summarizer summarizer.Service
	logger     *slog.Logger
}

// NewService is a wire provider for the paper domain.
func NewService(cfg Config, fetcher Fetcher, extractor Extractor, summarizerSvc summarizer.Service, logger *slog.Logger) Service {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 4096
	}
	return &service{
		cfg:        cfg,
		fetcher:    fetcher,
		extractor:  extractor,
		summarizer: summarizerSvc,
		logger:     logger.With("component", "paper.service"),
	}
}

// NormalizeID strips the path slash and an optional .pdf suffix.
func NormalizeID(raw string) string {
	id := strings.Trim(strings.TrimSpace(raw), "/")
	return strings.TrimSuffix(id, ".pdf")
}

func (s *service) FetchPDF(ctx context.Context, paperID string) (Document, error) {
	id := NormalizeID(paperID)
	if id == "" {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingID, nil)
	}
	content, err := s.fetch(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return Document{
		PaperID:  id,
		Filename: filename(id),
		Content:  content,
	}, nil
}

func (s *service) Summarize(ctx context.Context, paperID string) (_ Summary, err error) {
	id := NormalizeID(paperID)
	if id == "" {
		return Summary{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingID, nil)
	}
	ctx, span := tracer.Start(ctx, "paper.summarize", trace.WithAttributes(attribute.String("paper.id", id)))
	defer func() { telemetry.End(span, err) }()
	logger := s.logger.With("paper_id", id)
	start := time.Now()

	content, err := s.fetch(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	extraction, err := s.extract(ctx, logger, content)
	if err != nil {
		return Summary{}, err
	}

	text := util.NormalizeWhitespace(extraction.Text)
	chars := util.RuneLen(text)
	if chars < s.cfg.MinTextChars {
		logger.Warn("extracted text too short", "chars", chars, "pages", extraction.Pages)
		return Summary{}, apperrors.Wrap(apperrors.CodeExtractionFailed, MsgExtractionFailed,
			fmt.Errorf("extracted %d characters, need %d", chars, s.cfg.MinTextChars))
	}
	span.SetAttributes(attribute.Int("paper.pages", extraction.Pages), attribute.Int("paper.chars", chars))
	logger.Debug("paper text extracted",
		"pages", extraction.Pages,
		"total_pages", extraction.TotalPages,
		"chars", chars,
		"preview", util.Preview(text, 500),
	)

	out, err := s.summarizer.SummarizeDocument(ctx, util.TruncateRunes(text, s.cfg.MaxInputChars))
	if err != nil {
		return Summary{}, err
	}

	elapsed := time.Since(start).Milliseconds()
	logger.Info("paper summarized", "pages", extraction.Pages, "chars", chars, "duration_ms", elapsed)
	return Summary{
		PaperID:    id,
		Summary:    out.Summary,
		Pages:      extraction.Pages,
		Characters: chars,
		DurationMs: elapsed,
		TokenUsage: out.TokenUsage.Ptr(),
	}, nil
}

func (s *service) fetch(ctx context.Context, id string) (_ []byte, err error) {
	ctx, span := tracer.Start(ctx, "paper.fetch")
	defer func() { telemetry.End(span, err) }()

	content, err := s.fetcher.FetchPDF(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Info("paper pdf not found", "paper_id", id, "error", err)
			return nil, apperrors.Wrap(apperrors.CodeNotFound, MsgPDFNotFound, err)
		}
		s.logger.Error("paper pdf fetch failed", "paper_id", id, "error", err)
		return nil, apperrors.Wrap(apperrors.CodeFetchFailed, MsgFetchFailed, err)
	}
	return content, nil
}

// extract materializes content to a request scoped temp file and reads its
// text. The file is removed before returning on every path.
func (s *service) extract(ctx context.Context, logger *slog.Logger, content []byte) (_ Extraction, err error) {
	ctx, span := tracer.Start(ctx, "paper.extract")
	defer func() { telemetry.End(span, err) }()

	path, release, err := s.materialize(logger, content)
	if err != nil {
		return Extraction{}, apperrors.Wrap(apperrors.CodeInternal, MsgMaterializeFailed, err)
	}
	defer release()

	extraction, err := s.extractor.Extract(ctx, path, s.cfg.MaxPages)
	if err != nil {
		logger.Error("pdf text extraction failed", "error", err)
		return Extraction{}, apperrors.Wrap(apperrors.CodeExtractionFailed, MsgExtractionFailed, err)
	}
	return extraction, nil
}

func (s *service) materialize(logger *slog.Logger, content []byte) (string, func(), error) {
	file, err := os.CreateTemp(s.cfg.TempDir, "paper-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove temp pdf failed", "path", path, "error", err)
		}
	}

	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		release()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		release()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, release, nil
}

func filename(id string) string {
	return strings.ReplaceAll(id, "/", "_") + ".pdf"
}
