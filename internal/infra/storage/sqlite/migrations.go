// Package sqlite provides SQLite schema of events storage.
package sqlite

import (
	"embed"
)

// Migrations provide database migrations.
//
//go:embed *.sql
var Migrations embed.FS
