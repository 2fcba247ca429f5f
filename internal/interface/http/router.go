package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/paper-summarizer/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		tracingMiddleware(),
		requestLogger(logger),
		errorHandlingMiddleware(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/", handler.Health)

	api := router.Group("/api")
	{
		api.POST("/summarize", handler.Summarize)
		api.GET("/summarize-paper/*paper_id", handler.SummarizePaper)
		api.GET("/pdf/*paper_id", handler.StreamPDF)
		api.GET("/search", handler.Search)
		api.GET("/papers/*paper_id", handler.Lookup)
	}

	mountStatic(router, cfg.HTTP.StaticPrefix, cfg.HTTP.StaticDir, logger)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

// mountStatic serves the PDF viewer assets when they are deployed.
func mountStatic(router *gin.Engine, prefix, dir string, logger *slog.Logger) {
	if prefix == "" || dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Info("static assets not mounted", "dir", dir)
		return
	}
	router.Static(prefix, dir)
	logger.Info("static assets mounted", "prefix", prefix, "dir", dir)
}
