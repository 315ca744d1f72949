package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/focusflow/internal/persistence/sqlite/migration"
	"github.com/example/focusflow/migrations"
)

// Storage bundles a connection pool with every repository built on it.
type Storage struct {
	Pool      *ConnectionPool
	Users     *UserRepository
	Sessions  *SessionRepository
	Blocklist *BlocklistRepository
	Tokens    *TokenRepository
}

// Open connects to the database described by config. Call Migrate before
// using the repositories against a fresh file.
func Open(config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		Pool:      pool,
		Users:     NewUserRepository(pool),
		Sessions:  NewSessionRepository(pool),
		Blocklist: NewBlocklistRepository(pool),
		Tokens:    NewTokenRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s == nil || s.Pool == nil {
		return nil
	}
	return s.Pool.Close()
}

// MigrationManager returns a manager over the embedded schema files.
func (s *Storage) MigrationManager(logger *slog.Logger) migration.MigrationManager {
	scanner := migration.NewFileScanner(migrations.FS)
	executor := migration.NewSQLiteExecutor(s.Pool.DB())
	return migration.NewMigrationManager(scanner, executor, ".", logger)
}

// Migrate applies pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	if err := s.MigrationManager(logger).RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
