// Package migrations embeds the SQLite schema files applied at startup.
package migrations

import "embed"

// FS holds the numbered *.sql migration files at its root.
//
//go:embed *.sql
var FS embed.FS
