// Package migration applies versioned SQL files to a SQLite database.
//
// Files are read from an fs.FS (normally the embedded migrations package)
// and must be named {version}_{description}.sql, e.g. 001_initial_schema.sql.
// A leading "-- Description:" comment overrides the description taken from
// the file name. Applied versions and checksums are tracked in the
// schema_migrations table; each file runs in its own transaction.
//
//	scanner := migration.NewFileScanner(migrations.FS)
//	executor := migration.NewSQLiteExecutor(db)
//	manager := migration.NewMigrationManager(scanner, executor, ".", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
