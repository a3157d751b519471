// Package migrations embeds the SQL schema files into the binary.
//
// Importing this package (usually blank) registers the files with the
// database package so Migrate works without the files on disk.
package migrations

import (
	"embed"

	"github.com/bosves/bosves-api/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
