package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/focusflow/internal/persistence/sqlite"
	"github.com/example/focusflow/internal/persistence/sqlite/migration"
)

// SQLiteHarness is a migrated throwaway database for integration tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	cleanup func()
}

// Close releases the database. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated database file under tb.TempDir.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "focusflow.db")
	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background(), nil); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		cleanup: func() { _ = storage.Close() },
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser inserts the fixture's account directly through the repository.
func (h *SQLiteHarness) SeedUser(tb testing.TB, user UserFixture) {
	tb.Helper()
	if err := h.Storage.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
		tb.Fatalf("failed to seed user %s: %v", user.ID, err)
	}
}

// SeedSessions inserts finished or running sessions.
func (h *SQLiteHarness) SeedSessions(tb testing.TB, sessions ...SessionFixture) {
	tb.Helper()
	for _, session := range sessions {
		if err := h.Storage.Sessions.CreateSession(context.Background(), session.Persistence()); err != nil {
			tb.Fatalf("failed to seed session %s: %v", session.ID, err)
		}
	}
}

// SeedBlocklist inserts block rules.
func (h *SQLiteHarness) SeedBlocklist(tb testing.TB, items ...BlocklistFixture) {
	tb.Helper()
	for _, item := range items {
		if err := h.Storage.Blocklist.CreateBlocklistItem(context.Background(), item.Persistence()); err != nil {
			tb.Fatalf("failed to seed blocklist item %s: %v", item.ID, err)
		}
	}
}
