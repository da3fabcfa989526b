// Package migrations embeds the SQL schema for the notification tables so
// applications can apply it with pg.MigrateFS without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
