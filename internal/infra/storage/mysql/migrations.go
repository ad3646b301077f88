// Package mysql provides MySQL schema of events storage.
package mysql

import (
	"embed"
)

// Migrations provide database migrations.
//
//go:embed *.sql
var Migrations embed.FS
