package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
	"github.com/yanqian/paper-summarizer/pkg/util"
)

// Public failure messages.
const (
	MsgTextTooShort       = "Text is too short or empty"
	MsgInvalidSummary     = "Failed to generate a valid summary."
	MsgTextGenerateFailed = "Failed to generate summary. Please try again."
	MsgDocGenerateFailed  = "Failed to generate summary."
	MsgModelBusy          = "Model is busy. Please try again later."
)

// Service exposes summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
	SummarizeDocument(ctx context.Context, text string) (DocumentSummary, error)
}

// Generator runs the model. Implemented by the inference host, which fits
// input to the token budget before rendering it with tmpl.
type Generator interface {
	Generate(ctx context.Context, input string, tmpl inference.Template, cfg inference.GenerationConfig) (inference.Generation, error)
}

type service struct {
	cfg       Config
	variant   Variant
	generator Generator
	logger    *slog.Logger
}

// NewService is a wire provider for the summarizer domain.
func NewService(cfg Config, generator Generator, logger *slog.Logger) (Service, error) {
	variant, err := LookupVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = variant.DefaultMaxLength
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = variant.DefaultMinLength
	}
	if cfg.MinInputChars <= 0 {
		cfg.MinInputChars = 10
	}
	if cfg.MinSummaryChars <= 0 {
		cfg.MinSummaryChars = 10
	}
	return &service{
		cfg:       cfg,
		variant:   variant,
		generator: generator,
		logger:    logger.With("component", "summarizer.service", "variant", variant.Name),
	}, nil
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(req.Text)
	if util.RuneLen(text) < s.cfg.MinInputChars {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgTextTooShort, nil)
	}
	s.logger.Debug("summarize text", "chars", util.RuneLen(text), "preview", util.Preview(text, 200))

	maxLen, minLen := s.lengths(req)
	out, err := s.run(ctx, text, s.variant.TextPolicy(maxLen, minLen), MsgTextGenerateFailed)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Summary:    out.Summary,
		DurationMs: out.DurationMs,
		TokenUsage: out.TokenUsage.Ptr(),
	}, nil
}

func (s *service) SummarizeDocument(ctx context.Context, text string) (DocumentSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DocumentSummary{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgTextTooShort, nil)
	}
	return s.run(ctx, text, s.variant.PaperPolicy(), MsgDocGenerateFailed)
}

func (s *service) lengths(req Request) (int, int) {
	maxLen, minLen := req.MaxLength, req.MinLength
	if maxLen <= 0 {
		maxLen = s.cfg.MaxLength
	}
	if minLen <= 0 {
		minLen = s.cfg.MinLength
	}
	return maxLen, minLen
}

func (s *service) run(ctx context.Context, text string, policy inference.GenerationConfig, failMsg string) (DocumentSummary, error) {
	start := time.Now()
	out, err := s.generator.Generate(ctx, text, s.variant.Prompt, policy)
	if err != nil {
		if errors.Is(err, inference.ErrBusy) {
			s.logger.Warn("inference gate busy", "error", err)
			return DocumentSummary{}, apperrors.Wrap(apperrors.CodeModelBusy, MsgModelBusy, err)
		}
		s.logger.Error("generation failed", "error", err)
		return DocumentSummary{}, apperrors.Wrap(apperrors.CodeInternal, failMsg, err)
	}

	summary := util.NormalizeWhitespace(s.variant.Extract(out.Text))
	if util.RuneLen(summary) < s.cfg.MinSummaryChars {
		s.logger.Warn("generated summary too short", "raw", util.Preview(out.Text, 200))
		return DocumentSummary{}, apperrors.Wrap(apperrors.CodeGenerationFailed, MsgInvalidSummary, nil)
	}

	elapsed := time.Since(start).Milliseconds()
	s.logger.Info("summary generated",
		"input_chars", util.RuneLen(text),
		"summary_chars", util.RuneLen(summary),
		"duration_ms", elapsed,
	)
	return DocumentSummary{
		Summary:    summary,
		DurationMs: elapsed,
		TokenUsage: out.Usage,
	}, nil
}
