package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the user_version this build creates and migrates to.
const SchemaVersion = 1

// ErrPairNotFound is returned when a pair id and unique id match no
// stored pair.
var ErrPairNotFound = errors.New("primer pair not found")

// SchemaError reports a failure to create or migrate the store schema.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("initializing primer store %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// DB is a primer store backed by a SQLite file. It holds no open
// connection: every operation opens the file, runs in one transaction and
// closes it again, so concurrent processes only contend for the duration
// of a single call.
type DB struct {
	path string
}

// Open ensures the schema exists at path and returns a handle to it.
// Opening an existing store leaves its data untouched.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" || path == ":memory:" {
		return nil, &SchemaError{Path: path, Err: errors.New("a file path is required")}
	}
	d := &DB{path: path}
	if err := d.Initialize(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// connect opens a single-connection handle. lock selects how transactions
// begin ("deferred" or "immediate").
func (d *DB) connect(lock string) (*sql.DB, error) {
	dsn := d.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=" + lock
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return sqlDB, nil
}

// withTx opens a connection, runs fn in a transaction and commits when fn
// succeeds. The connection is closed on every path.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return d.withLockedTx(ctx, "deferred", fn)
}

// withWriteTx is withTx with the write lock taken at BEGIN, so a
// read-then-write transaction waits on busy_timeout instead of failing
// when another writer got there first.
func (d *DB) withWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return d.withLockedTx(ctx, "immediate", fn)
}

func (d *DB) withLockedTx(ctx context.Context, lock string, fn func(tx *sql.Tx) error) (err error) {
	sqlDB, err := d.connect(lock)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing database: %w", cerr)
		}
	}()

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Initialize creates any missing tables and indexes.
func (d *DB) Initialize(ctx context.Context) error {
	err := d.withWriteTx(ctx, func(tx *sql.Tx) error {
		var version int
		if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
			return fmt.Errorf("reading user_version: %w", err)
		}
		if version >= SchemaVersion {
			return nil
		}
		if version < 1 {
			if err := migrateV1(ctx, tx); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("setting user_version: %w", err)
		}
		return nil
	})
	if err != nil {
		return &SchemaError{Path: d.path, Err: err}
	}
	return nil
}

func migrateV1(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS primer (
			name TEXT PRIMARY KEY,
			seq TEXT,
			tm REAL,
			gc REAL
		)`,
		`CREATE TABLE IF NOT EXISTS target (
			seq TEXT,
			chrom TEXT,
			position INT,
			reverse BOOLEAN
		)`,
		`CREATE INDEX IF NOT EXISTS seq_index_in_target ON target(seq)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS locus_in_target ON target(seq, chrom, position, reverse)`,
		`CREATE TABLE IF NOT EXISTS pairs (
			pairid TEXT,
			uniqueid TEXT,
			"left" TEXT,
			"right" TEXT,
			chrom TEXT,
			start INT,
			"end" INT,
			UNIQUE (pairid, uniqueid) ON CONFLICT REPLACE
		)`,
		`CREATE TABLE IF NOT EXISTS status (
			pairid TEXT NOT NULL,
			uniqueid TEXT NOT NULL,
			status INT,
			dateadded TEXT,
			UNIQUE (pairid, uniqueid) ON CONFLICT REPLACE
		)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing migration statement: %w", err)
		}
	}
	return nil
}
