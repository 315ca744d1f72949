package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/focusflow/internal/application"
	"github.com/example/focusflow/internal/config"
	"github.com/example/focusflow/internal/persistence/sqlite"
	"github.com/example/focusflow/internal/persistence/sqlite/migration"
	"github.com/example/focusflow/internal/telemetry"
)

// App holds the storage and services shared by CLI commands.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Storage   *sqlite.Storage
	Users     *application.UserService
	Auth      *application.AuthService
	Sessions  *application.SessionService
	Blocklist *application.BlocklistService
	Analytics *application.AnalyticsService

	exporter *telemetry.Exporter
}

// NewApp opens the database, applies pending migrations and builds every
// service. Telemetry is started only when enabled in cfg.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx, logger); err != nil {
		_ = storage.Close()
		return nil, err
	}

	var metrics application.Metrics
	var exporter *telemetry.Exporter
	if cfg.Telemetry.Enabled {
		exporter, err = telemetry.NewExporter(ctx, telemetry.Config{
			Enabled:        cfg.Telemetry.Enabled,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ServiceName:    cfg.Telemetry.ServiceName,
			ExportInterval: cfg.Telemetry.ExportInterval,
		})
		if err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("failed to start telemetry: %w", err)
		}
		metrics = exporter
	}

	app := buildServices(cfg, logger, storage, metrics, time.Now)
	app.exporter = exporter
	return app, nil
}

func buildServices(cfg config.Config, logger *slog.Logger, storage *sqlite.Storage, metrics application.Metrics, now func() time.Time) *App {
	userRepo := newUserRepositoryAdapter(storage.Users)
	credentials := newCredentialStoreAdapter(storage.Users)
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions)
	blocklistRepo := newBlocklistRepositoryAdapter(storage.Blocklist)
	tokenRepo := newTokenRepositoryAdapter(storage.Tokens)

	users := application.NewUserServiceWithLogger(userRepo, newID, now, logger)
	auth := application.NewAuthServiceWithLogger(credentials, tokenRepo, users, application.VerifyPassword, newToken, now, cfg.TokenTTL, logger)
	blocklist := application.NewBlocklistServiceWithLogger(blocklistRepo, newID, now, logger,
		application.WithBlocklistMetrics(metrics))
	analytics := application.NewAnalyticsServiceWithLogger(sessionRepo, now, logger,
		application.WithAnalyticsLocation(cfg.Location),
		application.WithInsightsCacheTTL(cfg.InsightsCacheTTL))
	sessions := application.NewSessionServiceWithLogger(sessionRepo, blocklist, newID, now, logger,
		application.WithSettingsProvider(users),
		application.WithTimerDefaults(application.TimerDefaults{
			Work:       cfg.Timer.Work,
			ShortBreak: cfg.Timer.ShortBreak,
			LongBreak:  cfg.Timer.LongBreak,
		}),
		application.WithSessionMetrics(metrics),
		application.WithSessionLocation(cfg.Location),
		application.WithSessionChangeListener(analytics.InvalidateUser))

	return &App{
		Config:    cfg,
		Logger:    logger,
		Storage:   storage,
		Users:     users,
		Auth:      auth,
		Sessions:  sessions,
		Blocklist: blocklist,
		Analytics: analytics,
	}
}

// Close flushes telemetry and releases the database.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.exporter != nil {
		if err := a.exporter.Close(ctx); err != nil {
			a.Logger.WarnContext(ctx, "failed to flush telemetry", "error", err)
		}
	}
	return a.Storage.Close()
}

// PurgeExpiredTokens removes bearer tokens that expired before now.
func (a *App) PurgeExpiredTokens(ctx context.Context) error {
	return a.Storage.Tokens.DeleteExpiredTokens(ctx, time.Now().UTC())
}

func newID() string {
	return uuid.NewString()
}

func newToken() string {
	return randomHex(32)
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
