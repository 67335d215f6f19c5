// Package migrations embeds the SQL migrations for the helpers' database.
//
// Pass FS to database.(*DB).Migrate.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
