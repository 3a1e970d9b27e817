// Package history persists a record of every `shift run` and the files it
// rewrote in .shift/history.db.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"shift/internal/paths"
	"shift/internal/report"
	"shift/internal/slogutil"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
	StatusErrored   RunStatus = "errored"
)

// Run is one invocation of the task pipeline.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	StartedAt   time.Time  `json:"startedAt" yaml:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Tasks       []string   `json:"tasks" yaml:"tasks"`
	Status      RunStatus  `json:"status" yaml:"status"`
	ExitCode    int        `json:"exitCode" yaml:"exitCode"`
	FailedTask  string     `json:"failedTask,omitempty" yaml:"failedTask,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	RepoState   string     `json:"repoState,omitempty" yaml:"repoState,omitempty"`
	Changes     int        `json:"changes" yaml:"changes"`
}

// Store provides persistence for run history in a SQLite database.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// OpenStore opens or creates the history database at .shift/history.db
func OpenStore(repoRoot string, logger *slog.Logger) (*Store, error) {
	logger = slogutil.OrDiscard(logger)

	if _, err := paths.EnsureShiftDir(repoRoot); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", paths.ShiftDirName, err)
	}

	dbPath := paths.HistoryDBPath(repoRoot)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{conn: conn, logger: logger, dbPath: dbPath}

	if !dbExists {
		logger.Info("Creating history database", "path", dbPath)
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			tasks TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			exit_code INTEGER NOT NULL DEFAULT 0,
			failed_task TEXT,
			error TEXT,
			repo_state TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS file_changes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			task TEXT NOT NULL,
			path TEXT NOT NULL,
			instances INTEGER NOT NULL,
			before_digest TEXT NOT NULL,
			after_digest TEXT NOT NULL,
			notes TEXT,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_file_changes_run ON file_changes(run_id);
		CREATE INDEX IF NOT EXISTS idx_file_changes_path ON file_changes(path);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// StartRun inserts a new run in the running state.
func (s *Store) StartRun(ctx context.Context, tasks []string, repoState string) (*Run, error) {
	if tasks == nil {
		tasks = []string{}
	}
	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Tasks:     tasks,
		Status:    StatusRunning,
		RepoState: repoState,
	}

	tasksJSON, err := json.Marshal(run.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tasks: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, tasks, status, repo_state)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.Format(time.RFC3339), string(tasksJSON), run.Status, nullString(repoState))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Debug("Started run", "runId", run.ID, "tasks", run.Tasks)
	return run, nil
}

// FinishRun marks run as completed. A non-nil runErr marks it errored,
// otherwise the exit code decides between succeeded and failed.
func (s *Store) FinishRun(ctx context.Context, run *Run, exitCode int, failedTask string, runErr error) error {
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.ExitCode = exitCode
	run.FailedTask = failedTask

	switch {
	case runErr != nil:
		run.Status = StatusErrored
		run.Error = runErr.Error()
	case exitCode != 0:
		run.Status = StatusFailed
	default:
		run.Status = StatusSucceeded
	}

	result, err := s.conn.ExecContext(ctx, `
		UPDATE runs SET completed_at = ?, status = ?, exit_code = ?, failed_task = ?, error = ?
		WHERE id = ?
	`, now.Format(time.RFC3339), run.Status, exitCode, nullString(failedTask), nullString(run.Error), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// RecordChange stores one rewritten file against runID.
func (s *Store) RecordChange(ctx context.Context, runID string, change report.Change) error {
	notes, err := json.Marshal(change.Notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO file_changes (run_id, task, path, instances, before_digest, after_digest, notes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, change.Task, change.Path, change.Instances, change.BeforeDigest, change.AfterDigest,
		string(notes), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record change for %s: %w", change.Path, err)
	}
	return nil
}

// Recorder binds the store to a single run so tasks can report changes
// without knowing the run id.
func (s *Store) Recorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RunRecorder records changes for one run.
type RunRecorder struct {
	store *Store
	runID string
}

// RecordChange implements tasks.Recorder.
func (r *RunRecorder) RecordChange(ctx context.Context, change report.Change) error {
	return r.store.RecordChange(ctx, r.runID, change)
}

const runColumns = `
	r.id, r.started_at, r.completed_at, r.tasks, r.status, r.exit_code, r.failed_task, r.error, r.repo_state,
	(SELECT COUNT(*) FROM file_changes c WHERE c.run_id = r.id)
`

// GetRun retrieves a run by id. A missing run returns nil, nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns the most recent runs first. limit is clamped to 1..100.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Changes returns the files rewritten during runID in recording order.
func (s *Store) Changes(ctx context.Context, runID string) ([]report.Change, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT task, path, instances, before_digest, after_digest, notes
		FROM file_changes WHERE run_id = ?
		ORDER BY rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	changes := []report.Change{}
	for rows.Next() {
		var c report.Change
		var notes sql.NullString
		if err := rows.Scan(&c.Task, &c.Path, &c.Instances, &c.BeforeDigest, &c.AfterDigest, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		if notes.Valid && notes.String != "" {
			if err := json.Unmarshal([]byte(notes.String), &c.Notes); err != nil {
				return nil, fmt.Errorf("failed to decode notes: %w", err)
			}
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var startedAt, tasksJSON, status string
	var completedAt, failedTask, errMsg, repoState sql.NullString

	err := row.Scan(
		&run.ID,
		&startedAt,
		&completedAt,
		&tasksJSON,
		&status,
		&run.ExitCode,
		&failedTask,
		&errMsg,
		&repoState,
		&run.Changes,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = RunStatus(status)
	run.FailedTask = failedTask.String
	run.Error = errMsg.String
	run.RepoState = repoState.String

	if err := json.Unmarshal([]byte(tasksJSON), &run.Tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}

	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
