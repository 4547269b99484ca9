// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql files applied at startup and by the migrate command.
//
//go:embed *.up.sql
var FS embed.FS
