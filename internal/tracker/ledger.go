// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracker

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// TaskStatus is the state of a sync task.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskSynced  TaskStatus = "synced"
	TaskFailed  TaskStatus = "failed"

	// TaskSkipped marks a retry that found the same content already synced.
	TaskSkipped TaskStatus = "skipped"
)

// Task is one attempt to push one report file to the tracker.
type Task struct {
	ID                  string     `json:"id" yaml:"id"`
	Path                string     `json:"path" yaml:"path"`
	ContentHash         string     `json:"content_hash" yaml:"content_hash"`
	Status              TaskStatus `json:"status" yaml:"status"`
	ReportID            string     `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Opportunities       int        `json:"opportunities" yaml:"opportunities"`
	FailedOpportunities int        `json:"failed_opportunities" yaml:"failed_opportunities"`
	Error               string     `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt           time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" yaml:"updated_at"`
}

// ErrTaskNotFound is returned when a task id is unknown.
var ErrTaskNotFound = errors.New("sync task not found")

// Ledger records sync tasks in SQLite so that a report file is pushed at
// most once per content hash and failed pushes can be retried.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sync_tasks (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			status TEXT NOT NULL,
			report_id TEXT,
			opportunities INTEGER NOT NULL DEFAULT 0,
			failed_opportunities INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_tasks_hash ON sync_tasks(content_hash, status)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_tasks_status ON sync_tasks(status)`,
		`CREATE TABLE IF NOT EXISTS synced_opportunities (
			task_id TEXT NOT NULL REFERENCES sync_tasks(id),
			position INTEGER NOT NULL,
			opportunity_id TEXT NOT NULL,
			PRIMARY KEY (task_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// HashContent returns the hex SHA-256 of a report's bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Enqueue records a pending task for path with the given content hash.
func (l *Ledger) Enqueue(ctx context.Context, path, hash string) (*Task, error) {
	now := l.now().UTC()
	t := &Task{
		ID:          uuid.NewString(),
		Path:        path,
		ContentHash: hash,
		Status:      TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO sync_tasks (id, path, content_hash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Path, t.ContentHash, string(t.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting sync task: %w", err)
	}
	return t, nil
}

// FindSynced returns the most recent synced task for hash, if any.
func (l *Ledger) FindSynced(ctx context.Context, hash string) (*Task, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM sync_tasks
		 WHERE content_hash = ? AND status = ?
		 ORDER BY updated_at DESC LIMIT 1`,
		hash, string(TaskSynced))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

// Get returns the task with id.
func (l *Ledger) Get(ctx context.Context, id string) (*Task, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM sync_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, err
}

// Complete marks a task synced and stores the created opportunity ids.
func (l *Ledger) Complete(ctx context.Context, id string, res Result) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var errText sql.NullString
	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Error()
		}
		errText = sql.NullString{String: strings.Join(msgs, "; "), Valid: true}
	}

	r, err := tx.ExecContext(ctx,
		`UPDATE sync_tasks SET status = ?, report_id = ?, opportunities = ?,
			failed_opportunities = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		string(TaskSynced), res.ReportID, len(res.OpportunityIDs), res.Failed,
		errText, formatTime(l.now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("updating sync task: %w", err)
	}
	if err := requireRow(r, id); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO synced_opportunities (task_id, position, opportunity_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, oppID := range res.OpportunityIDs {
		if _, err := stmt.ExecContext(ctx, id, i, oppID); err != nil {
			return fmt.Errorf("inserting opportunity %s: %w", oppID, err)
		}
	}
	return tx.Commit()
}

// Fail marks a task failed with cause.
func (l *Ledger) Fail(ctx context.Context, id string, cause error) error {
	return l.setStatus(ctx, id, TaskFailed, cause.Error())
}

// Skip marks a task skipped because its content was already synced.
func (l *Ledger) Skip(ctx context.Context, id, reason string) error {
	return l.setStatus(ctx, id, TaskSkipped, reason)
}

func (l *Ledger) setStatus(ctx context.Context, id string, status TaskStatus, msg string) error {
	r, err := l.db.ExecContext(ctx,
		`UPDATE sync_tasks SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), msg, formatTime(l.now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("updating sync task: %w", err)
	}
	return requireRow(r, id)
}

// Pending returns pending and failed tasks, oldest first.
func (l *Ledger) Pending(ctx context.Context) ([]Task, error) {
	return l.query(ctx,
		`SELECT `+taskColumns+` FROM sync_tasks WHERE status IN (?, ?) ORDER BY created_at, id`,
		string(TaskPending), string(TaskFailed))
}

// List returns up to limit tasks, newest first. A limit of zero or less
// returns all tasks.
func (l *Ledger) List(ctx context.Context, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = -1
	}
	return l.query(ctx,
		`SELECT `+taskColumns+` FROM sync_tasks ORDER BY created_at DESC, id LIMIT ?`, limit)
}

// OpportunityIDs returns the tracker ids created by a task, in order.
func (l *Ledger) OpportunityIDs(ctx context.Context, taskID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT opportunity_id FROM synced_opportunities WHERE task_id = ? ORDER BY position`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying opportunities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning opportunity: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const taskColumns = `id, path, content_hash, status, report_id, opportunities,
	failed_opportunities, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t                    Task
		status               string
		reportID, errText    sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&t.ID, &t.Path, &t.ContentHash, &status, &reportID,
		&t.Opportunities, &t.FailedOpportunities, &errText, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = TaskStatus(status)
	t.ReportID = reportID.String
	t.Error = errText.String
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]Task, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func requireRow(r sql.Result, id string) error {
	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

// formatTime uses a fixed-width layout so that text order is time order.
func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000000Z07:00")
}
