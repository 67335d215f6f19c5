// Package kv is a small typed key-value store shared by the helpers.
//
// Each key is one row of the dictionary table with a nullable column per
// type. Writing one type leaves the other columns of the row untouched,
// so a key can carry a bool and an integer side by side.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nerrad567/rice/internal/infrastructure/config"
	"github.com/nerrad567/rice/internal/infrastructure/database"
	"github.com/nerrad567/rice/migrations"
)

var (
	// ErrNotFound indicates the key is absent or holds no value of the
	// requested type.
	ErrNotFound = errors.New("kv: not found")

	// ErrStore indicates the underlying database failed.
	ErrStore = errors.New("kv: store error")
)

// Column names of the dictionary table.
const (
	colBool    = "bool"
	colText    = "text"
	colInt64   = "i64"
	colFloat64 = "f64"
)

// DefaultPath returns the store location shared with the bar config.
func DefaultPath() string {
	return filepath.Join(config.ConfigHome(), "waybar", "rice.db")
}

// Store reads and writes typed values.
//
// Thread Safety:
//   - Safe for concurrent use; statements go through a single connection.
type Store struct {
	db    *database.DB
	owned bool
}

// Open opens the store at path with WAL mode and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	return OpenConfig(ctx, config.DatabaseConfig{Path: path, WALMode: true, BusyTimeout: 5})
}

// OpenConfig opens the store described by cfg and applies migrations.
func OpenConfig(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	// A file that is not a database opens fine and only fails on first read.
	if err := db.HealthCheck(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s: %w", ErrStore, cfg.Path, err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return &Store{db: db, owned: true}, nil
}

// New wraps an already migrated database. Close leaves db open.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// PutBool stores a bool under key.
func (s *Store) PutBool(ctx context.Context, key string, v bool) error {
	return s.put(ctx, colBool, key, v)
}

// PutString stores a string under key.
func (s *Store) PutString(ctx context.Context, key, v string) error {
	return s.put(ctx, colText, key, v)
}

// PutInt64 stores an integer under key.
func (s *Store) PutInt64(ctx context.Context, key string, v int64) error {
	return s.put(ctx, colInt64, key, v)
}

// PutFloat64 stores a float under key.
func (s *Store) PutFloat64(ctx context.Context, key string, v float64) error {
	return s.put(ctx, colFloat64, key, v)
}

// GetBool returns the bool stored under key.
func (s *Store) GetBool(ctx context.Context, key string) (bool, error) {
	var v sql.NullBool
	if err := s.get(ctx, colBool, key, &v); err != nil {
		return false, err
	}
	if !v.Valid {
		return false, fmt.Errorf("%w: %s (bool)", ErrNotFound, key)
	}
	return v.Bool, nil
}

// GetString returns the string stored under key.
func (s *Store) GetString(ctx context.Context, key string) (string, error) {
	var v sql.NullString
	if err := s.get(ctx, colText, key, &v); err != nil {
		return "", err
	}
	if !v.Valid {
		return "", fmt.Errorf("%w: %s (text)", ErrNotFound, key)
	}
	return v.String, nil
}

// GetInt64 returns the integer stored under key.
func (s *Store) GetInt64(ctx context.Context, key string) (int64, error) {
	var v sql.NullInt64
	if err := s.get(ctx, colInt64, key, &v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, fmt.Errorf("%w: %s (i64)", ErrNotFound, key)
	}
	return v.Int64, nil
}

// GetFloat64 returns the float stored under key.
func (s *Store) GetFloat64(ctx context.Context, key string) (float64, error) {
	var v sql.NullFloat64
	if err := s.get(ctx, colFloat64, key, &v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, fmt.Errorf("%w: %s (f64)", ErrNotFound, key)
	}
	return v.Float64, nil
}

// Delete removes every value stored under key. Deleting a missing key is
// not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dictionary WHERE "key" = ?`, key); err != nil {
		return fmt.Errorf("%w: deleting %s: %w", ErrStore, key, err)
	}
	return nil
}

// Reset drops every value by rolling the schema all the way back and
// migrating it again. It is the way out of a store left in a bad state,
// such as a recording flag whose recorder is long gone.
func (s *Store) Reset(ctx context.Context) error {
	for {
		applied, _, err := s.db.MigrationStatus(ctx, migrations.FS)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
		if len(applied) == 0 {
			break
		}
		if err := s.db.Rollback(ctx, migrations.FS); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
	}
	if err := s.db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// put upserts one column. col is always one of the col* constants.
func (s *Store) put(ctx context.Context, col, key string, v any) error {
	query := fmt.Sprintf(
		`INSERT INTO dictionary ("key", %[1]q) VALUES (?, ?)
		 ON CONFLICT("key") DO UPDATE SET %[1]q = excluded.%[1]q`, col)
	if _, err := s.db.ExecContext(ctx, query, key, v); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrStore, key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, col, key string, dest any) error {
	query := fmt.Sprintf(`SELECT %q FROM dictionary WHERE "key" = ? LIMIT 1`, col)
	err := s.db.QueryRowContext(ctx, query, key).Scan(dest)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrStore, key, err)
	}
	return nil
}
