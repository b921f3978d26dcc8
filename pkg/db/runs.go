package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run represents one scrape invocation.
type Run struct {
	RunID        string
	Keyword      string
	Directory    string
	Requested    int
	Threads      int
	Found        int
	SuccessCount int
	FailedCount  int
	CreatedAt    time.Time
	FinishedAt   sql.NullTime
}

// ErrRunNotFound is returned when no run matches the given id.
var ErrRunNotFound = errors.New("run not found")

// CreateRun inserts a run record before discovery starts.
func (db *DB) CreateRun(runID, keyword, directory string, requested, threads int) error {
	_, err := db.Exec(`
		INSERT INTO runs (run_id, keyword, directory, requested, threads)
		VALUES (?, ?, ?, ?, ?)
	`, runID, keyword, directory, requested, threads)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts and marks the run finished.
func (db *DB) FinishRun(runID string, found, successCount, failedCount int) error {
	res, err := db.Exec(`
		UPDATE runs
		SET found = ?, success_count = ?, failed_count = ?, finished_at = CURRENT_TIMESTAMP
		WHERE run_id = ?
	`, found, successCount, failedCount, runID)
	if err != nil {
		return fmt.Errorf("failed to update run stats: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun retrieves a run by its id.
func (db *DB) GetRun(runID string) (*Run, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, keyword, directory, requested, threads, found,
		       success_count, failed_count, created_at, finished_at
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(
		&r.RunID,
		&r.Keyword,
		&r.Directory,
		&r.Requested,
		&r.Threads,
		&r.Found,
		&r.SuccessCount,
		&r.FailedCount,
		&r.CreatedAt,
		&r.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns retrieves runs ordered by most recent first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, keyword, directory, requested, threads, found,
		       success_count, failed_count, created_at, finished_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Keyword, &r.Directory, &r.Requested, &r.Threads, &r.Found,
			&r.SuccessCount, &r.FailedCount, &r.CreatedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
