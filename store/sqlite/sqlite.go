/*
Package sqlite provides a SQLite-backed implementation of the collection store.

PURPOSE:
  Persists the three named collections of the compensation book (institution
  info, beneficiaries, compensations) as JSON documents, and keeps an audit
  trail of every payment batch produced.

INTERFACES IMPLEMENTED:
  compensation.CollectionStore:   Load/Save of a named collection
  compensation.TxCollectionStore: All-or-nothing save of several collections

KEY TABLES:
  collections: One row per collection, payload stored as JSON text
  batch_runs:  One row per payment batch produced (append-only)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that an
  in-memory database is shared by every caller.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/compensation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  book := compensation.NewBook(time.Now())
  err = book.Load(ctx, store)

SEE ALSO:
  - compensation/store.go: Interface definitions
  - compensation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/compensation-engine/compensation"
)

// Store implements the collection store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Named JSON collections (institutionInfo, beneficiaries, compensations)
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		payload_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Payment batches produced (append-only audit trail)
	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		fiscal_year TEXT NOT NULL,
		financial_month TEXT NOT NULL,
		treasury_rip TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		skipped_count INTEGER NOT NULL,
		total_cents INTEGER NOT NULL,
		skipped_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batch_runs_created_at
		ON batch_runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// COLLECTION STORE (compensation.CollectionStore interface)
// =============================================================================

// Load returns the stored payload of a collection.
func (s *Store) Load(ctx context.Context, name compensation.Collection) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadCollection(ctx, s.db, name)
}

// Save replaces the payload of a collection.
func (s *Store) Save(ctx context.Context, name compensation.Collection, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveCollection(ctx, s.db, name, payload)
}

func loadCollection(ctx context.Context, q querier, name compensation.Collection) ([]byte, bool, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload_json FROM collections WHERE name = ?`, string(name)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return []byte(payload), true, nil
}

func saveCollection(ctx context.Context, q querier, name compensation.Collection, payload []byte) error {
	query := `
		INSERT INTO collections (name, payload_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query, string(name), string(payload), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (compensation.TxCollectionStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store compensation.CollectionStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Load(ctx context.Context, name compensation.Collection) ([]byte, bool, error) {
	return loadCollection(ctx, ts.tx, name)
}

func (ts *txStore) Save(ctx context.Context, name compensation.Collection, payload []byte) error {
	return saveCollection(ctx, ts.tx, name, payload)
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// BatchRun records one produced payment batch.
type BatchRun struct {
	ID                string          `json:"id"`
	FiscalYear        string          `json:"fiscalYear"`
	FinancialMonth    string          `json:"financialMonth"`
	TreasuryRoutingID string          `json:"treasuryRip"`
	RecordCount       int             `json:"recordCount"`
	SkippedCount      int             `json:"skippedCount"`
	TotalCents        int64           `json:"totalCents"`
	Skipped           json.RawMessage `json:"skipped,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// SaveBatchRun appends a batch run. ID and CreatedAt are filled in when empty.
func (s *Store) SaveBatchRun(ctx context.Context, run *BatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	var skipped sql.NullString
	if len(run.Skipped) > 0 {
		skipped = sql.NullString{String: string(run.Skipped), Valid: true}
	}

	query := `
		INSERT INTO batch_runs
			(id, fiscal_year, financial_month, treasury_rip, record_count, skipped_count, total_cents, skipped_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.FiscalYear,
		run.FinancialMonth,
		run.TreasuryRoutingID,
		run.RecordCount,
		run.SkippedCount,
		run.TotalCents,
		skipped,
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save batch run: %w", err)
	}
	return nil
}

// ListBatchRuns returns the most recent batch runs first.
func (s *Store) ListBatchRuns(ctx context.Context, limit int) ([]BatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, fiscal_year, financial_month, treasury_rip, record_count, skipped_count,
		       total_cents, skipped_json, created_at
		FROM batch_runs
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch runs: %w", err)
	}
	defer rows.Close()

	var runs []BatchRun
	for rows.Next() {
		var (
			run       BatchRun
			skipped   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.FiscalYear, &run.FinancialMonth, &run.TreasuryRoutingID,
			&run.RecordCount, &run.SkippedCount, &run.TotalCents, &skipped, &createdAt); err != nil {
			return nil, err
		}
		if skipped.Valid {
			run.Skipped = json.RawMessage(skipped.String)
		}
		run.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"collections", "batch_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
