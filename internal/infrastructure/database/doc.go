// Package database provides the SQLite store behind the BosVes API.
//
// It owns:
//   - Opening the database with WAL mode and a busy timeout
//   - Applying the embedded schema migrations
//   - Health checks used by GET /health
//
// All queries in the repositories use parameterised statements. The
// database file is created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package and are named
// YYYYMMDD_HHMMSS_description.{up,down}.sql. Each one is applied in its own
// transaction and recorded in schema_migrations.
package database
