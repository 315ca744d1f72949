package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/example/focusflow/internal/http"
)

const (
	shutdownTimeout    = 10 * time.Second
	tokenPurgeInterval = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the FocusFlow HTTP API.

Pending migrations are applied on start. The server stops gracefully on
SIGINT or SIGTERM.

Examples:
  focusflow serve
  focusflow serve --config focusflow.yaml
  FOCUSFLOW_HTTP_PORT=9090 focusflow serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := app.Close(closeCtx); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("focusflow API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server encountered error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		return nil
	})
	group.Go(func() error {
		runTokenPurge(groupCtx, app, logger, tokenPurgeInterval)
		return nil
	})

	return group.Wait()
}

// newHandler builds the routed API with request logging.
func newHandler(app *App) http.Handler {
	logger := app.Logger
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(app.Auth, logger),
		Users:      httptransport.NewUserHandler(app.Users, logger),
		Sessions:   httptransport.NewSessionHandler(app.Sessions, logger),
		Blocklist:  httptransport.NewBlocklistHandler(app.Blocklist, logger),
		Analytics:  httptransport.NewAnalyticsHandler(app.Analytics, logger),
		Health:     httptransport.NewHealthHandler(app.Storage.Pool, logger),
		Tokens:     app.Auth,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

func runTokenPurge(ctx context.Context, app *App, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.PurgeExpiredTokens(ctx); err != nil && ctx.Err() == nil {
				logger.WarnContext(ctx, "failed to purge expired tokens", "error", err)
			}
		}
	}
}
