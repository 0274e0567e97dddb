// Package db holds the SQL migrations for both supported dialects. Files
// live under migrations/<driver>/ and are embedded so the binary carries
// its own schema.
package db

import "embed"

// Migrations contains migrations/mysql and migrations/sqlite.
//
//go:embed migrations
var Migrations embed.FS
