package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/poller"
)

// ErrNotFound is returned by Get for unknown task ids.
var ErrNotFound = errors.New("history: task not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
)

// Record is one journaled job.
type Record struct {
	TaskID      string               `json:"task_id"`
	Title       string               `json:"title"`
	Settings    entity.VideoSettings `json:"settings"`
	State       poller.State         `json:"state"`
	Progress    int                  `json:"progress"`
	VideoURL    string               `json:"video_url,omitempty"`
	Error       string               `json:"error,omitempty"`
	SubmittedAt time.Time            `json:"submitted_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Finished reports whether the job reached a terminal state.
func (r Record) Finished() bool {
	return r.State.Terminal()
}

// Store is the journal handle.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the journal at path. Migrations run under an
// exclusive file lock so concurrent vidgen processes do not race on schema
// creation.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return nil, errors.New("history: database is locked by another process")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSubmitted inserts a freshly submitted or tracked task. Re-recording
// an existing id refreshes its title and settings and resets its outcome.
func (s *Store) RecordSubmitted(ctx context.Context, taskID string, settings entity.VideoSettings, title string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return errors.New("history: task id is empty")
	}
	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	now := s.now().UTC().Format(timeLayout)
	return s.exec(ctx, `
INSERT INTO tasks (task_id, title, settings, state, progress, video_url, error, submitted_at, updated_at)
VALUES (?, ?, ?, ?, 0, '', '', ?, ?)
ON CONFLICT(task_id) DO UPDATE SET
    title = excluded.title,
    settings = excluded.settings,
    state = excluded.state,
    progress = 0,
    video_url = '',
    error = '',
    updated_at = excluded.updated_at`,
		taskID, strings.TrimSpace(title), string(encoded), string(poller.StatePolling), now, now)
}

// RecordOutcome stores the snapshot's state and task fields. Snapshots
// without a task id are ignored.
func (s *Store) RecordOutcome(ctx context.Context, snap poller.Snapshot) error {
	taskID := strings.TrimSpace(snap.Task.TaskID)
	if taskID == "" {
		return nil
	}
	now := s.now().UTC().Format(timeLayout)
	return s.exec(ctx, `
INSERT INTO tasks (task_id, state, progress, video_url, error, submitted_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(task_id) DO UPDATE SET
    state = excluded.state,
    progress = excluded.progress,
    video_url = excluded.video_url,
    error = excluded.error,
    updated_at = excluded.updated_at`,
		taskID, string(snap.State), snap.Task.Progress, snap.Task.VideoURL, snap.Task.Error, now, now)
}

// List returns the most recent records first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT task_id, title, settings, state, progress, video_url, error, submitted_at, updated_at
FROM tasks ORDER BY submitted_at DESC, task_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, taskID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT task_id, title, settings, state, progress, video_url, error, submitted_at, updated_at
FROM tasks WHERE task_id = ?`, strings.TrimSpace(taskID))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                    Record
		settings, state        string
		submitted, updatedText string
	)
	if err := row.Scan(&rec.TaskID, &rec.Title, &settings, &state, &rec.Progress, &rec.VideoURL, &rec.Error, &submitted, &updatedText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan history row: %w", err)
	}
	rec.State = poller.State(state)
	if strings.TrimSpace(settings) != "" {
		if err := json.Unmarshal([]byte(settings), &rec.Settings); err != nil {
			return Record{}, fmt.Errorf("decode settings for %s: %w", rec.TaskID, err)
		}
	}
	rec.SubmittedAt, _ = time.Parse(timeLayout, submitted)
	rec.UpdatedAt, _ = time.Parse(timeLayout, updatedText)
	return rec, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
