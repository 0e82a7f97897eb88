package db

import "embed"

// Migrations holds the goose SQL migrations compiled into the binaries.
//
//go:embed migrations/*.sql
var Migrations embed.FS
