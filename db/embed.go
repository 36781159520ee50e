// Package db embeds the goose migrations that define the sales schema.
package db

import "embed"

// Migrations holds the versioned goose SQL files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations passed to goose.
const MigrationsDir = "migrations"
