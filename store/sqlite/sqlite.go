/*
Package sqlite provides a SQLite-backed implementation of the keyed record
store.

PURPOSE:
  Durable Store/ConditionalStore implementation. Records are hierarchical
  path -> JSON document pairs in a single table; prefix listing rides the
  primary-key index via LIKE.

ATOMICITY:
  Update and UpdateIfAbsent run inside a SQL transaction: either every key
  lands or the transaction rolls back. If a rollback itself fails after a
  mid-batch error, the partial state is surfaced as PartialWriteError -
  never swallowed.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

LOCKING:
  Transactions begin IMMEDIATE (_txlock=immediate) and writers wait up to
  5s for the write lock (_busy_timeout). A guarded update that loses a race
  therefore runs after the winner commits, reads the winner's guard value,
  and fails with DuplicateKeyError instead of SQLITE_BUSY.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions and path layout
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/facultyops/attendance-engine/engine"
)

// Store implements engine.Store and engine.ConditionalStore over SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3",
		dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		path TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE path = ?`, path).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(value), true, nil
}

func (s *Store) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM records WHERE path LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage)
	for rows.Next() {
		var path, value string
		if err := rows.Scan(&path, &value); err != nil {
			return nil, err
		}
		result[path] = json.RawMessage(value)
	}
	return result, rows.Err()
}

// =============================================================================
// WRITES
// =============================================================================

func (s *Store) Set(ctx context.Context, path string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (path, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		path, string(value), now())
	return err
}

func (s *Store) Remove(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE path = ?`, path)
	return err
}

// Update applies all writes in one SQL transaction. A nil value deletes.
func (s *Store) Update(ctx context.Context, writes map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := applyWrites(ctx, tx, writes); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateIfAbsent applies writes only while guardPath holds no value. The
// existence check and the batch share one IMMEDIATE transaction: the write
// lock is taken at begin, so concurrent guarded updates serialize and the
// loser's check observes the winner's guard value.
func (s *Store) UpdateIfAbsent(ctx context.Context, guardPath string, writes map[string]json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE path = ?`, guardPath).Scan(&one)
	if err == nil {
		tx.Rollback()
		return &engine.DuplicateKeyError{Path: guardPath}
	}
	if err != sql.ErrNoRows {
		tx.Rollback()
		return err
	}

	if err := applyWrites(ctx, tx, writes); err != nil {
		return err
	}
	return tx.Commit()
}

// applyWrites executes the batch within tx, rolling back on failure. Callers
// must not use tx after an error return.
func applyWrites(ctx context.Context, tx *sql.Tx, writes map[string]json.RawMessage) error {
	var applied []string
	for path, value := range writes {
		var err error
		if value == nil {
			_, err = tx.ExecContext(ctx, `DELETE FROM records WHERE path = ?`, path)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO records (path, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				path, string(value), now())
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return &engine.PartialWriteError{Applied: applied, Failed: path, Err: err}
			}
			return fmt.Errorf("multi-key update failed at %q: %w", path, err)
		}
		applied = append(applied, path)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Compile-time capability checks.
var (
	_ engine.Store            = (*Store)(nil)
	_ engine.ConditionalStore = (*Store)(nil)
)
