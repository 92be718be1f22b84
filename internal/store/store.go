package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/threadfeed/internal/config"
	"github.com/ibeckermayer/threadfeed/internal/types"
)

// History records every run and each message it sent
type History struct {
	db *sql.DB
}

// DefaultHistoryPath is where the history database lives when db_path is unset.
func DefaultHistoryPath() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "history.db"), nil
}

// New opens (and creates if needed) the SQLite history at dbPath
func New(dbPath string) (*History, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	return h, nil
}

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

// Times are stored as unix nanoseconds; 0 means unset.
func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		state TEXT NOT NULL,
		abort_reason TEXT NOT NULL DEFAULT '',
		total INTEGER NOT NULL DEFAULT 0,
		sent INTEGER NOT NULL DEFAULT 0,
		last TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sends (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		content TEXT NOT NULL,
		sent_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := h.db.Exec(schema)
	return err
}

// StartRun inserts the run with its current state
func (h *History) StartRun(r *types.Report) error {
	_, err := h.db.Exec(`
		INSERT INTO runs (id, thread_id, state, abort_reason, total, sent, last, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.ThreadID, string(r.State), string(r.AbortReason), r.Total, r.Sent, r.Last, r.Error,
		toUnix(r.StartedAt), toUnix(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", r.RunID, err)
	}
	return nil
}

// RecordSend stores one sent message and bumps the run's counters
func (h *History) RecordSend(m types.SentMessage) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO sends (run_id, seq, content, sent_at) VALUES (?, ?, ?, ?)
	`, m.RunID, m.Seq, m.Content, toUnix(m.SentAt)); err != nil {
		return fmt.Errorf("failed to record send: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE runs SET sent = sent + 1, last = ?, state = ? WHERE id = ?
	`, m.Content, string(types.StateSending), m.RunID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return tx.Commit()
}

// FinishRun writes the final state of the run
func (h *History) FinishRun(r *types.Report) error {
	res, err := h.db.Exec(`
		UPDATE runs SET state = ?, abort_reason = ?, total = ?, sent = ?, last = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(r.State), string(r.AbortReason), r.Total, r.Sent, r.Last, r.Error, toUnix(r.FinishedAt), r.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", r.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", r.RunID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first
func (h *History) RecentRuns(limit int) ([]types.Report, error) {
	rows, err := h.db.Query(`
		SELECT id, thread_id, state, abort_reason, total, sent, last, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []types.Report
	for rows.Next() {
		var r types.Report
		var state, reason string
		var started, finished int64

		err := rows.Scan(&r.RunID, &r.ThreadID, &state, &reason, &r.Total, &r.Sent,
			&r.Last, &r.Error, &started, &finished)
		if err != nil {
			return nil, err
		}

		r.State = types.State(state)
		r.AbortReason = types.AbortReason(reason)
		r.StartedAt = fromUnix(started)
		r.FinishedAt = fromUnix(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SendsForRun returns the messages a run sent, in order
func (h *History) SendsForRun(runID string) ([]types.SentMessage, error) {
	rows, err := h.db.Query(`
		SELECT run_id, seq, content, sent_at FROM sends WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sends []types.SentMessage
	for rows.Next() {
		var m types.SentMessage
		var sentAt int64
		if err := rows.Scan(&m.RunID, &m.Seq, &m.Content, &sentAt); err != nil {
			return nil, err
		}
		m.SentAt = fromUnix(sentAt)
		sends = append(sends, m)
	}
	return sends, rows.Err()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
