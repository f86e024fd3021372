package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// Run is one batch invocation.
type Run struct {
	ID          int64
	Root        string
	StartedAt   string
	FinishedAt  string
	DryRun      bool
	Files       int
	Transformed int
	Skipped     int
	Unchanged   int
	Failed      int
	Changes     int
}

// FileResult is the outcome of one file within a run.
type FileResult struct {
	RunID     int64
	RelPath   string
	Status    string
	Changes   int
	Error     string
	ElapsedMS int64
}

const runColumns = "id, root, started_at, finished_at, dry_run, files, transformed, skipped, unchanged, failed, changes"

// BeginRun inserts a run row and returns its id.
func (s *Store) BeginRun(root string, dryRun bool) (int64, error) {
	res, err := s.q.Exec("INSERT INTO runs (root, started_at, dry_run) VALUES (?, ?, ?)",
		root, Now(), boolInt(dryRun))
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stores the totals of a run and stamps its finish time.
func (s *Store) FinishRun(r *Run) error {
	res, err := s.q.Exec(`
		UPDATE runs SET finished_at=?, files=?, transformed=?, skipped=?, unchanged=?, failed=?, changes=?
		WHERE id=?`,
		Now(), r.Files, r.Transformed, r.Skipped, r.Unchanged, r.Failed, r.Changes, r.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, r.ID)
	}
	return nil
}

// RecordFile stores one file outcome. Recording the same path twice in a
// run keeps the later outcome.
func (s *Store) RecordFile(fr *FileResult) error {
	_, err := s.q.Exec(`
		INSERT INTO file_results (run_id, rel_path, status, changes, error, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, rel_path) DO UPDATE SET status=excluded.status, changes=excluded.changes,
			error=excluded.error, elapsed_ms=excluded.elapsed_ms`,
		fr.RunID, fr.RelPath, fr.Status, fr.Changes, fr.Error, fr.ElapsedMS)
	if err != nil {
		return fmt.Errorf("record %s: %w", fr.RelPath, err)
	}
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(id int64) (*Run, error) {
	r, err := scanRun(s.q.QueryRow("SELECT "+runColumns+" FROM runs WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var result []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// FileResults returns the file outcomes of a run ordered by path.
func (s *Store) FileResults(runID int64) ([]*FileResult, error) {
	rows, err := s.q.Query(`
		SELECT run_id, rel_path, status, changes, error, elapsed_ms
		FROM file_results WHERE run_id=? ORDER BY rel_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("file results: %w", err)
	}
	defer rows.Close()
	var result []*FileResult
	for rows.Next() {
		var fr FileResult
		if err := rows.Scan(&fr.RunID, &fr.RelPath, &fr.Status, &fr.Changes, &fr.Error, &fr.ElapsedMS); err != nil {
			return nil, err
		}
		result = append(result, &fr)
	}
	return result, rows.Err()
}

// DeleteRun deletes a run and its file results (CASCADE).
func (s *Store) DeleteRun(id int64) error {
	_, err := s.q.Exec("DELETE FROM runs WHERE id=?", id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var dry int
	err := row.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &dry,
		&r.Files, &r.Transformed, &r.Skipped, &r.Unchanged, &r.Failed, &r.Changes)
	if err != nil {
		return nil, err
	}
	r.DryRun = dry != 0
	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
