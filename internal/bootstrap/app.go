package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/paper-summarizer/internal/infra/config"
	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	"github.com/yanqian/paper-summarizer/pkg/telemetry"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	host     *inference.Host
	shutdown telemetry.Shutdown
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, host *inference.Host, shutdown telemetry.Shutdown) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		host:     host,
		shutdown: shutdown,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server
// fails. In-flight requests get cfg.HTTP.ShutdownTimeout to finish.
func (a *App) Run(ctx context.Context) error {
	defer a.flushTelemetry()
	errCh := make(chan error, 1)

	go func() {
		status := a.host.Status()
		a.logger.Info("http server starting",
			"address", a.cfg.HTTP.Address,
			"variant", status.Variant,
			"model", status.Model,
			"device", status.Device,
		)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		timeout := a.cfg.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.logger.Info("shutdown signal received", "timeout", timeout.String())
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) flushTelemetry() {
	if a.shutdown == nil {
		return
	}
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Warn("telemetry flush failed", "error", err)
	}
}
