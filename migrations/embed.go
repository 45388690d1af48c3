// Package migrations embeds the goose SQL migrations so the server can
// bring the schema up to date at boot without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
