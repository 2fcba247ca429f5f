package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/paper-summarizer/internal/domain/catalog"
	"github.com/yanqian/paper-summarizer/internal/domain/paper"
	"github.com/yanqian/paper-summarizer/internal/domain/summarizer"
	"github.com/yanqian/paper-summarizer/internal/infra/arxiv"
	"github.com/yanqian/paper-summarizer/internal/infra/config"
	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	"github.com/yanqian/paper-summarizer/internal/infra/inference/hf"
	"github.com/yanqian/paper-summarizer/internal/infra/inference/openai"
	"github.com/yanqian/paper-summarizer/internal/infra/tokenizer"
	"github.com/yanqian/paper-summarizer/pkg/telemetry"
)

const describeTimeout = 15 * time.Second

func provideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		Variant:         cfg.Model.Variant,
		MaxLength:       cfg.Summary.MaxLength,
		MinLength:       cfg.Summary.MinLength,
		MinInputChars:   cfg.Summary.MinInputChars,
		MinSummaryChars: cfg.Summary.MinSummaryChars,
	}
}

func providePaperConfig(cfg *config.Config) paper.Config {
	return paper.Config{
		MaxPages:      cfg.Paper.MaxPages,
		MinTextChars:  cfg.Paper.MinTextChars,
		MaxInputChars: cfg.Paper.MaxInputChars,
		TempDir:       cfg.Paper.TempDir,
	}
}

func provideCatalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		DefaultResults: 10,
		MaxResults:     cfg.Catalog.MaxResults,
	}
}

func provideArxivClient(cfg *config.Config) *arxiv.Client {
	return arxiv.NewClient(arxiv.Config{
		PDFURLTemplate: cfg.Paper.PDFURLTemplate,
		AbsURLTemplate: cfg.Catalog.AbsURLTemplate,
		SearchURL:      cfg.Catalog.SearchURL,
		UserAgent:      cfg.Paper.UserAgent,
		FetchTimeout:   cfg.Paper.FetchTimeout,
		IndexTimeout:   cfg.Catalog.Timeout,
		MaxPDFBytes:    cfg.Paper.MaxPDFBytes,
	})
}

func provideTokenizer(cfg *config.Config) (*tokenizer.Tiktoken, error) {
	return tokenizer.NewTiktoken(cfg.Model.TokenizerEncoding)
}

func provideBackend(cfg *config.Config) (inference.Backend, error) {
	switch cfg.Model.Backend {
	case config.BackendHF:
		return hf.NewClient(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.RequestTimeout)
	case config.BackendOpenAI:
		return openai.NewClient(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.RequestTimeout)
	default:
		return nil, fmt.Errorf("unsupported model backend %q", cfg.Model.Backend)
	}
}

func provideModelHost(cfg *config.Config, backend inference.Backend, tok inference.Tokenizer, logger *slog.Logger) (*inference.Host, error) {
	ctx, cancel := context.WithTimeout(context.Background(), describeTimeout)
	defer cancel()
	return inference.NewHost(ctx, inference.HostConfig{
		Model:          cfg.Model.Name,
		Variant:        cfg.Model.Variant,
		Backend:        cfg.Model.Backend,
		Device:         cfg.Model.Device,
		MaxInputTokens: cfg.Model.MaxInputTokens,
		MaxConcurrent:  cfg.Model.MaxConcurrent,
		QueueTimeout:   cfg.Model.QueueTimeout,
	}, backend, tok, logger)
}

func provideTelemetry(cfg *config.Config, logger *slog.Logger) (telemetry.Shutdown, error) {
	return telemetry.Init(context.Background(), telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Variant:     cfg.Model.Variant,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	}, logger)
}
