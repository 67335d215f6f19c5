package database

import "errors"

var (
	// ErrOpen indicates the database file could not be opened or verified.
	ErrOpen = errors.New("database: open failed")

	// ErrQuery indicates a statement failed to execute.
	ErrQuery = errors.New("database: query failed")

	// ErrMigration indicates a migration could not be loaded or applied.
	ErrMigration = errors.New("database: migration failed")
)
