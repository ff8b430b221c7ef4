// Package store persists telemetry batches that have not yet been
// acknowledged by the backend. It is the durable half of the
// store-and-forward queue: rows survive process death and are deleted only
// on upload success or once their attempt count reaches the retry ceiling.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertBatchSQL = `
INSERT INTO pending_telemetry (session_id, samples_json, sample_count, created_at, attempt_count)
VALUES (?, ?, ?, ?, 0)`

	selectPendingSQL = `
SELECT id, session_id, samples_json, sample_count, created_at, attempt_count
FROM pending_telemetry
ORDER BY created_at ASC, id ASC`

	selectPendingForSQL = `
SELECT id, session_id, samples_json, sample_count, created_at, attempt_count
FROM pending_telemetry
WHERE session_id = ?
ORDER BY created_at ASC, id ASC`

	deleteBatchSQL = `DELETE FROM pending_telemetry WHERE id = ?`

	incrementAttemptsSQL = `
UPDATE pending_telemetry SET attempt_count = attempt_count + 1 WHERE id = ?`

	evictStaleSQL = `DELETE FROM pending_telemetry WHERE attempt_count >= ?`

	countSQL = `SELECT COUNT(*) FROM pending_telemetry`
)

// PendingBatch is one durable row awaiting delivery.
type PendingBatch struct {
	ID           int64
	SessionID    string
	PayloadJSON  []byte
	SampleCount  int
	CreatedAtMS  int64
	AttemptCount int
}

// Store handles pending-batch persistence. The connection is opened lazily
// on first use and limited to a single underlying handle, so every
// operation is serialised and runs as its own transaction.
type Store struct {
	dbPath string
	nowMS  func() int64

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the created_at timestamp source. Tests use it to pin
// row ordering.
func WithClock(nowMS func() int64) Option {
	return func(s *Store) {
		s.nowMS = nowMS
	}
}

// New creates a store backed by the SQLite database at dbPath. The file and
// schema are created on first use.
func New(dbPath string, opts ...Option) *Store {
	s := &Store{
		dbPath: dbPath,
		nowMS:  func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.db = db
	})

	return s.db, s.dbErr
}

// Insert atomically persists a batch and returns its row id.
func (s *Store) Insert(ctx context.Context, sessionID string, payloadJSON []byte, sampleCount int) (id int64, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	result, err := db.ExecContext(ctx, insertBatchSQL, sessionID, string(payloadJSON), sampleCount, s.nowMS())
	if err != nil {
		err = fmt.Errorf("inserting batch: %w", err)
		return
	}

	id, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting batch ID: %w", err)
	}
	return
}

// AllPending returns every stored batch ordered by creation time ascending.
func (s *Store) AllPending(ctx context.Context) ([]PendingBatch, error) {
	return s.queryBatches(ctx, selectPendingSQL)
}

// PendingFor returns the stored batches for one session, oldest first.
func (s *Store) PendingFor(ctx context.Context, sessionID string) ([]PendingBatch, error) {
	return s.queryBatches(ctx, selectPendingForSQL, sessionID)
}

func (s *Store) queryBatches(ctx context.Context, query string, args ...any) (batches []PendingBatch, err error) {
	db, err := s.getDB()
	if err != nil {
		err = fmt.Errorf("getting connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		err = fmt.Errorf("querying pending batches: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var b PendingBatch
		var payload string
		if err = rows.Scan(&b.ID, &b.SessionID, &payload, &b.SampleCount, &b.CreatedAtMS, &b.AttemptCount); err != nil {
			err = fmt.Errorf("scanning batch: %w", err)
			return
		}
		b.PayloadJSON = []byte(payload)
		batches = append(batches, b)
	}
	err = rows.Err()
	return
}

// Delete removes a batch. Deleting a missing row is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	if _, err = db.ExecContext(ctx, deleteBatchSQL, id); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	return nil
}

// IncrementAttempts bumps a batch's attempt counter by one.
func (s *Store) IncrementAttempts(ctx context.Context, id int64) error {
	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	if _, err = db.ExecContext(ctx, incrementAttemptsSQL, id); err != nil {
		return fmt.Errorf("incrementing attempts: %w", err)
	}
	return nil
}

// EvictStale deletes every batch whose attempt count has reached
// maxAttempts and returns how many rows were removed.
func (s *Store) EvictStale(ctx context.Context, maxAttempts int) (int64, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, fmt.Errorf("getting connection: %w", err)
	}

	result, err := db.ExecContext(ctx, evictStaleSQL, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("evicting stale batches: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting evicted batches: %w", err)
	}
	return n, nil
}

// Count returns the number of pending batches.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, fmt.Errorf("getting connection: %w", err)
	}

	var n int
	if err = db.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting batches: %w", err)
	}
	return n, nil
}

// Close releases the database connection. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
			s.db = nil
		}
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
