// Package database provides SQLite connectivity for the rice helpers.
//
// This package manages:
//   - The connection, with WAL mode and a busy timeout so that a writing
//     helper and a listening helper can share one file
//   - Schema migrations read from any fs.FS (see package migrations)
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
