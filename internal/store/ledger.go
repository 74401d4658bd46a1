// Package store keeps the history of conversion runs in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"djangify/internal/logging"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Status of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one ledger row.
type Run struct {
	ID              string
	InputDir        string
	OutputDir       string
	StartedAt       time.Time
	FinishedAt      time.Time // zero while running
	Status          Status
	FailedStage     string
	Error           string
	Complete        bool
	Templates       int
	SourceTemplates int
}

// Outcome is what FinishRun records.
type Outcome struct {
	Err             error
	FailedStage     string
	Complete        bool
	Templates       int
	SourceTemplates int
}

// Ledger manages the run history database.
type Ledger struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	now    func() time.Time
}

// Open creates or opens a ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	l := &Ledger{db: db, dbPath: path, now: time.Now}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_dir TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		complete INTEGER NOT NULL DEFAULT 0,
		templates INTEGER NOT NULL DEFAULT 0,
		source_templates INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// StartRun inserts a running row. An empty id gets a fresh uuid.
func (l *Ledger) StartRun(id, inputDir, outputDir string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	_, err := l.db.Exec(`
		INSERT INTO runs (id, input_dir, output_dir, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, id, inputDir, outputDir, l.now().UTC(), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	logging.Get(logging.CategoryStore).Debug("run started", zap.String("run_id", id))
	return id, nil
}

// FinishRun closes a run. A non-nil Outcome.Err marks it failed.
func (l *Ledger) FinishRun(id string, out Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := StatusCompleted
	errText := ""
	if out.Err != nil {
		status = StatusFailed
		errText = out.Err.Error()
	}

	res, err := l.db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, failed_stage = ?, error = ?,
			complete = ?, templates = ?, source_templates = ?
		WHERE id = ?
	`, l.now().UTC(), status, out.FailedStage, errText, out.Complete,
		out.Templates, out.SourceTemplates, id)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun returns one run.
func (l *Ledger) GetRun(id string) (*Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	row := l.db.QueryRow(`
		SELECT id, input_dir, output_dir, started_at, finished_at, status,
			failed_stage, error, complete, templates, source_templates
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (l *Ledger) ListRuns(limit int) ([]Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.Query(`
		SELECT id, input_dir, output_dir, started_at, finished_at, status,
			failed_stage, error, complete, templates, source_templates
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	var status string
	if err := s.Scan(&r.ID, &r.InputDir, &r.OutputDir, &r.StartedAt, &finished, &status,
		&r.FailedStage, &r.Error, &r.Complete, &r.Templates, &r.SourceTemplates); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return &r, nil
}
