// Package migrations embeds the SQLite schema migrations.
package migrations

import "embed"

// FS holds the numbered NNN_name.up.sql and NNN_name.down.sql files.
//
//go:embed *.sql
var FS embed.FS
