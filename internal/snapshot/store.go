// Package snapshot persists the full application state as a single JSON
// record in SQLite. The loader is forward and backward compatible: unknown
// JSON fields are ignored, missing collections take empty defaults, and
// legacy per-order fields are migrated on read (see model.Order).
package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// stateKey is the fixed key the whole application state lives under.
const stateKey = "appstate"

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on snapshots.saved_at
const currentSchemaVersion = 1

// ErrNoSnapshot is returned by Load when no state has ever been saved.
var ErrNoSnapshot = errors.New("snapshot: no saved state")

// PersistError wraps a failed snapshot write. Persistence failures are
// non-fatal by contract: the in-memory state stays authoritative.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("snapshot persist: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Store provides durable storage for the state snapshot.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the entire state under the fixed key, replacing any prior
// record. Errors come back as *PersistError so callers can classify them
// as the non-fatal persistence failures they are.
func (s *Store) Save(ctx context.Context, state *model.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return &PersistError{Err: fmt.Errorf("marshal state: %w", err)}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`, stateKey, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &PersistError{Err: err}
	}
	return nil
}

// Load reads the saved state. Returns ErrNoSnapshot when nothing has been
// saved yet; callers typically fall back to model.NewAppState().
//
// Decoding tolerates unknown fields and fills nil collections with empty
// defaults so snapshots written by newer or older versions both load.
func (s *Store) Load(ctx context.Context) (*model.AppState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE key = ?`, stateKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var state model.AppState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	applyDefaults(&state)
	return &state, nil
}

// LoadOrInit is Load with the missing-snapshot case mapped to a fresh
// empty state.
func (s *Store) LoadOrInit(ctx context.Context) (*model.AppState, error) {
	state, err := s.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return model.NewAppState(), nil
	}
	return state, err
}

// applyDefaults fills collections a sparse or legacy snapshot left nil.
func applyDefaults(state *model.AppState) {
	if state.Items == nil {
		state.Items = []model.Item{}
	}
	if state.Suppliers == nil {
		state.Suppliers = []model.Supplier{}
	}
	if state.Orders == nil {
		state.Orders = []model.Order{}
	}
	if state.Counters == nil {
		state.Counters = model.CounterTable{}
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the saved_at index for databases created before v1.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at
		ON snapshots(saved_at)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
