package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	writeChannelSize = 256
	batchSize        = 32
	flushInterval    = 100 * time.Millisecond

	timeLayout = "2006-01-02T15:04:05.000Z"
)

// SQLiteStore keeps recent attempts in memory for display and persists every
// attempt through a background, batched writer.
type SQLiteStore struct {
	*MemoryStore
	db              *sql.DB
	writeChan       chan Attempt
	droppedWrites   atomic.Int64
	doneChan        chan struct{}
	closed          atomic.Bool
	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}
}

// NewSQLiteStore opens (or creates) the history database, purges attempts
// older than retentionDays, and loads the newest recentLimit attempts.
func NewSQLiteStore(dbPath string, retentionDays, recentLimit int) (*SQLiteStore, error) {
	return newSQLiteStoreWithChannelSize(dbPath, writeChannelSize, retentionDays, recentLimit)
}

func newSQLiteStoreWithChannelSize(dbPath string, chanSize, retentionDays, recentLimit int) (*SQLiteStore, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	store := &SQLiteStore{
		MemoryStore:     NewMemoryStore(recentLimit),
		db:              db,
		writeChan:       make(chan Attempt, chanSize),
		doneChan:        make(chan struct{}),
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
	}

	if err := store.purgeOlderThan(retentionDays); err != nil {
		cancel()
		_ = db.Close()
		return nil, err
	}

	if err := store.recoverRecent(recentLimit); err != nil {
		cancel()
		_ = db.Close()
		return nil, fmt.Errorf("recovering attempts: %w", err)
	}

	go store.writerLoop()
	store.startMaintenance(ctx, retentionDays)

	return store, nil
}

// recoverRecent loads the newest attempts into the in-memory ring.
func (s *SQLiteStore) recoverRecent(limit int) error {
	var maxID sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(id) FROM attempts").Scan(&maxID); err != nil {
		return fmt.Errorf("reading max id: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, submitted_at, user_id, event_count, outcome, COALESCE(predicted, ''), COALESCE(message, '')
		FROM attempts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return fmt.Errorf("querying attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []Attempt
	for rows.Next() {
		var a Attempt
		var ts string
		if err := rows.Scan(&a.ID, &ts, &a.UserID, &a.EventCount, &a.Outcome, &a.Predicted, &a.Message); err != nil {
			return fmt.Errorf("scanning attempt: %w", err)
		}
		if parsed, err := time.Parse(timeLayout, ts); err == nil {
			a.SubmittedAt = parsed
		}
		newestFirst = append(newestFirst, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating attempts: %w", err)
	}

	for i := len(newestFirst) - 1; i >= 0; i-- {
		s.MemoryStore.add(newestFirst[i])
	}
	if maxID.Valid {
		s.reserveIDs(maxID.Int64)
	}
	return nil
}

// Record keeps the attempt in memory and queues it for persistence. A full
// write queue drops the write and counts it.
func (s *SQLiteStore) Record(a Attempt) {
	stored := s.MemoryStore.add(a)
	s.sendWrite(stored)
}

func (s *SQLiteStore) sendWrite(a Attempt) {
	if s.closed.Load() {
		return
	}
	defer func() { _ = recover() }()
	select {
	case s.writeChan <- a:
	default:
		s.droppedWrites.Add(1)
		slog.Warn("history write channel full, dropped write", "attempt", a.ID, "user_id", a.UserID)
	}
}

func (s *SQLiteStore) DroppedWrites() int64 {
	return s.droppedWrites.Load()
}

// Close stops maintenance, drains pending writes, and closes the database.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.cancelMaint()
	select {
	case <-s.maintenanceDone:
	case <-time.After(5 * time.Second):
		slog.Warn("history maintenance goroutine did not stop within 5s")
	}

	close(s.writeChan)

	select {
	case <-s.doneChan:
	case <-time.After(10 * time.Second):
		slog.Error("failed to drain history writes within 10s, data may be lost")
	}

	return s.db.Close()
}

func (s *SQLiteStore) writerLoop() {
	defer close(s.doneChan)

	batch := make([]Attempt, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case a, ok := <-s.writeChan:
			if !ok {
				if len(batch) > 0 {
					s.flushBatch(batch)
				}
				return
			}

			batch = append(batch, a)

			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

func (s *SQLiteStore) flushBatch(batch []Attempt) {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("failed to begin history transaction", "err", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range batch {
		if err := writeAttempt(tx, a); err != nil {
			slog.Error("failed to write attempt", "attempt", a.ID, "err", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit history transaction", "err", err)
	}
}

func writeAttempt(tx *sql.Tx, a Attempt) error {
	_, err := tx.Exec(`
		INSERT INTO attempts (id, submitted_at, user_id, event_count, outcome, predicted, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, a.SubmittedAt.UTC().Format(timeLayout), a.UserID, a.EventCount, a.Outcome, a.Predicted, a.Message)
	return err
}
