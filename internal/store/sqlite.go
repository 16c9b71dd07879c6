// Package store persists tasks, masjids, and hadith in SQLite. A
// single connection with WAL journaling keeps writers serialized
// without table locks stalling readers.
package store

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

	_ "github.com/mattn/go-sqlite3"

	"salaatflow/internal/core"
	"salaatflow/internal/logging"
)

// SQLiteStore is the durable backend for the interpreter.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open initializes the database at path, creating the schema and seed
// data on first run.
func Open(path string) (*SQLiteStore, error) {
	logging.Store("opening store at %s", path)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("pragma failed: %s: %v", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed data: %w", err)
	}
	logging.Store("store ready")
	return s, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			category     TEXT NOT NULL DEFAULT 'Other',
			priority     TEXT NOT NULL DEFAULT 'Medium',
			tags         TEXT NOT NULL DEFAULT '',
			masjid_id    INTEGER NOT NULL DEFAULT 0,
			area         TEXT NOT NULL DEFAULT '',
			due_at       TEXT,
			recurrence   TEXT NOT NULL DEFAULT '',
			completed    INTEGER NOT NULL DEFAULT 0,
			completed_at TEXT,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks(title)`,
		`CREATE TABLE IF NOT EXISTS masjids (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT NOT NULL,
			area         TEXT NOT NULL DEFAULT '',
			city         TEXT NOT NULL DEFAULT '',
			address      TEXT NOT NULL DEFAULT '',
			imam_name    TEXT NOT NULL DEFAULT '',
			phone        TEXT NOT NULL DEFAULT '',
			latitude     REAL NOT NULL DEFAULT 0,
			longitude    REAL NOT NULL DEFAULT 0,
			fajr_time    TEXT NOT NULL DEFAULT '',
			dhuhr_time   TEXT NOT NULL DEFAULT '',
			asr_time     TEXT NOT NULL DEFAULT '',
			maghrib_time TEXT NOT NULL DEFAULT '',
			isha_time    TEXT NOT NULL DEFAULT '',
			jummah_time  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_masjids_area ON masjids(area)`,
		`CREATE TABLE IF NOT EXISTS hadiths (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			arabic_text TEXT NOT NULL DEFAULT '',
			english     TEXT NOT NULL,
			urdu        TEXT NOT NULL DEFAULT '',
			narrator    TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT '',
			theme       TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func encodeTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func decodeTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeRecurrence(r core.RecurrenceRule) (string, error) {
	if r.IsZero() {
		return "", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecurrence(s string) (core.RecurrenceRule, error) {
	if s == "" {
		return core.RecurrenceRule{}, nil
	}
	var r core.RecurrenceRule
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return core.RecurrenceRule{}, err
	}
	return r, nil
}

// CreateTask inserts a task and fills in its ID and timestamps.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *core.Task, now time.Time) error {
	if t.Category == "" {
		t.Category = core.CategoryOther
	}
	if t.Priority == "" {
		t.Priority = core.PriorityMedium
	}
	t.CreatedAt = now.UTC()
	t.UpdatedAt = now.UTC()
	rec, err := encodeRecurrence(t.Recurrence)
	if err != nil {
		return fmt.Errorf("encode recurrence: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks
			(title, description, category, priority, tags, masjid_id, area,
			 due_at, recurrence, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)`,
		t.Title, t.Description, string(t.Category), string(t.Priority), t.Tags,
		t.MasjidID, t.Area, encodeTime(t.DueAt), rec,
		t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("%w: insert task: %v", core.ErrStoreUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: last insert id: %v", core.ErrStoreUnavailable, err)
	}
	t.ID = id
	t.Completed = false
	t.CompletedAt = nil
	logging.Store("created task %d %q", t.ID, t.Title)
	return nil
}

const taskColumns = `id, title, description, category, priority, tags, masjid_id,
	area, due_at, recurrence, completed, completed_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (core.Task, error) {
	var t core.Task
	var category, priority, recurrence string
	var dueAt, completedAt sql.NullString
	var createdAt, updatedAt string
	var completed int
	err := row.Scan(&t.ID, &t.Title, &t.Description, &category, &priority,
		&t.Tags, &t.MasjidID, &t.Area, &dueAt, &recurrence, &completed,
		&completedAt, &createdAt, &updatedAt)
	if err != nil {
		return core.Task{}, err
	}
	t.Category = core.TaskCategory(category)
	t.Priority = core.Priority(priority)
	t.Completed = completed != 0
	if t.DueAt, err = decodeTime(dueAt); err != nil {
		return core.Task{}, fmt.Errorf("decode due_at: %w", err)
	}
	if t.CompletedAt, err = decodeTime(completedAt); err != nil {
		return core.Task{}, fmt.Errorf("decode completed_at: %w", err)
	}
	if t.Recurrence, err = decodeRecurrence(recurrence); err != nil {
		return core.Task{}, fmt.Errorf("decode recurrence: %w", err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Task{}, fmt.Errorf("decode created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.Task{}, fmt.Errorf("decode updated_at: %w", err)
	}
	return t, nil
}

// GetTask fetches one task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (core.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, fmt.Errorf("%w: task %d", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Task{}, fmt.Errorf("%w: get task: %v", core.ErrStoreUnavailable, err)
	}
	return t, nil
}

// UpdateTask persists mutable fields of t. UpdatedAt is set to now but
// never moved backwards.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t core.Task, now time.Time) (core.Task, error) {
	prev, err := s.GetTask(ctx, t.ID)
	if err != nil {
		return core.Task{}, err
	}
	updatedAt := now.UTC()
	if updatedAt.Before(prev.UpdatedAt) {
		updatedAt = prev.UpdatedAt
	}
	rec, err := encodeRecurrence(t.Recurrence)
	if err != nil {
		return core.Task{}, fmt.Errorf("encode recurrence: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, category = ?, priority = ?,
			tags = ?, masjid_id = ?, area = ?, due_at = ?, recurrence = ?,
			updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, string(t.Category), string(t.Priority), t.Tags,
		t.MasjidID, t.Area, encodeTime(t.DueAt), rec,
		updatedAt.Format(timeLayout), t.ID)
	if err != nil {
		return core.Task{}, fmt.Errorf("%w: update task: %v", core.ErrStoreUnavailable, err)
	}
	return s.GetTask(ctx, t.ID)
}

// SetTaskCompleted flips completion, keeping completed_at consistent:
// set exactly when completed, cleared when not.
func (s *SQLiteStore) SetTaskCompleted(ctx context.Context, id int64, completed bool, now time.Time) (core.Task, error) {
	prev, err := s.GetTask(ctx, id)
	if err != nil {
		return core.Task{}, err
	}
	updatedAt := now.UTC()
	if updatedAt.Before(prev.UpdatedAt) {
		updatedAt = prev.UpdatedAt
	}
	var completedAt any
	flag := 0
	if completed {
		flag = 1
		completedAt = now.UTC().Format(timeLayout)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		flag, completedAt, updatedAt.Format(timeLayout), id)
	if err != nil {
		return core.Task{}, fmt.Errorf("%w: set completed: %v", core.ErrStoreUnavailable, err)
	}
	logging.Store("task %d completed=%v", id, completed)
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task permanently.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete task: %v", core.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", core.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %d", core.ErrNotFound, id)
	}
	logging.Store("deleted task %d", id)
	return nil
}

// ListTasks returns tasks matching the filter, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter core.ListFilter) ([]core.Task, error) {
	if !core.ValidFilter(filter) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFilter, filter)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	switch filter {
	case core.FilterPending:
		query += ` WHERE completed = 0`
	case core.FilterCompleted:
		query += ` WHERE completed = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan task: %v", core.ErrStoreUnavailable, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindTasksByTitle returns pending-first tasks whose title contains q,
// case-insensitively.
func (s *SQLiteStore) FindTasksByTitle(ctx context.Context, q string) ([]core.Task, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE lower(title) LIKE ?
		ORDER BY completed ASC, created_at DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: find tasks: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()
	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan task: %v", core.ErrStoreUnavailable, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
