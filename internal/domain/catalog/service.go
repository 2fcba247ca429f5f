package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yanqian/paper-summarizer/internal/domain/paper"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
)

// Public failure messages.
const (
	MsgMissingQuery  = "Query is required"
	MsgMissingID     = "Paper id is required"
	MsgPaperNotFound = "Paper not found"
	MsgIndexFailed   = "Failed to query paper index"
)

// Service searches the paper index and looks up paper metadata.
type Service interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	Lookup(ctx context.Context, paperID string) (Entry, error)
}

// Index is the external paper catalog.
type Index interface {
	Search(ctx context.Context, query string, start, max int) (Page, error)
	Lookup(ctx context.Context, paperID string) (Entry, error)
}

type service struct {
	cfg    Config
	index  Index
	logger *slog.Logger
}

// NewService is a wire provider for the catalog domain.
func NewService(cfg Config, index Index, logger *slog.Logger) Service {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.DefaultResults <= 0 || cfg.DefaultResults > cfg.MaxResults {
		cfg.DefaultResults = min(10, cfg.MaxResults)
	}
	return &service{cfg: cfg, index: index, logger: logger.With("component", "catalog.service")}
}

func (s *service) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingQuery, nil)
	}
	start := max(req.Start, 0)
	limit := req.Max
	switch {
	case limit <= 0:
		limit = s.cfg.DefaultResults
	case limit > s.cfg.MaxResults:
		limit = s.cfg.MaxResults
	}

	page, err := s.index.Search(ctx, query, start, limit)
	if err != nil {
		s.logger.Error("paper search failed", "query", query, "error", err)
		return SearchResponse{}, apperrors.Wrap(apperrors.CodeFetchFailed, MsgIndexFailed, err)
	}
	results := page.Entries
	if results == nil {
		results = []Entry{}
	}
	s.logger.Debug("paper search", "query", query, "start", start, "max", limit, "results", len(results), "total", page.Total)
	return SearchResponse{Results: results, Total: page.Total, Start: start}, nil
}

func (s *service) Lookup(ctx context.Context, paperID string) (Entry, error) {
	id := paper.NormalizeID(paperID)
	if id == "" {
		return Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingID, nil)
	}
	entry, err := s.index.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Entry{}, apperrors.Wrap(apperrors.CodeNotFound, MsgPaperNotFound, err)
		}
		s.logger.Error("paper lookup failed", "paper_id", id, "error", err)
		return Entry{}, apperrors.Wrap(apperrors.CodeFetchFailed, MsgIndexFailed, err)
	}
	return entry, nil
}
