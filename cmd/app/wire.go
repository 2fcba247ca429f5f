//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/paper-summarizer/internal/bootstrap"
	"github.com/yanqian/paper-summarizer/internal/domain/catalog"
	"github.com/yanqian/paper-summarizer/internal/domain/paper"
	"github.com/yanqian/paper-summarizer/internal/domain/summarizer"
	"github.com/yanqian/paper-summarizer/internal/infra/arxiv"
	"github.com/yanqian/paper-summarizer/internal/infra/config"
	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	"github.com/yanqian/paper-summarizer/internal/infra/pdftext"
	"github.com/yanqian/paper-summarizer/internal/infra/tokenizer"
	httpiface "github.com/yanqian/paper-summarizer/internal/interface/http"
	"github.com/yanqian/paper-summarizer/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummaryConfig,
		providePaperConfig,
		provideCatalogConfig,
		provideArxivClient,
		provideTokenizer,
		provideBackend,
		provideModelHost,
		provideTelemetry,
		pdftext.NewExtractor,
		summarizer.NewService,
		paper.NewService,
		catalog.NewService,
		wire.Bind(new(inference.Tokenizer), new(*tokenizer.Tiktoken)),
		wire.Bind(new(summarizer.Generator), new(*inference.Host)),
		wire.Bind(new(httpiface.ModelStatus), new(*inference.Host)),
		wire.Bind(new(paper.Fetcher), new(*arxiv.Client)),
		wire.Bind(new(paper.Extractor), new(*pdftext.Extractor)),
		wire.Bind(new(catalog.Index), new(*arxiv.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
