package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Run is one row of playback history. A run is inserted when the
// manager accepts it and finished with an outcome when it ends, so an
// empty outcome means the run is still in flight (or the process died
// mid-run).
type Run struct {
	RunID           string  `json:"runId"`
	RouteID         string  `json:"routeId"`
	Label           string  `json:"label,omitempty"`
	Mode            string  `json:"mode"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	StartSegmentIdx int     `json:"startSegmentIdx"`
	EndSegmentIdx   int     `json:"endSegmentIdx"`
	DryRun          bool    `json:"dryRun"`
	Outcome         string  `json:"outcome,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	StartedAt       int64   `json:"startedAt"`
	FinishedAt      int64   `json:"finishedAt,omitempty"`
}

// InsertRun records a newly accepted run.
func (db *DB) InsertRun(ctx context.Context, run Run) error {
	dryRun := 0
	if run.DryRun {
		dryRun = 1
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, route_id, label, mode, speed_multiplier,
			start_segment_idx, end_segment_idx, dry_run, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.RouteID, run.Label, run.Mode, run.SpeedMultiplier,
		run.StartSegmentIdx, run.EndSegmentIdx, dryRun, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stamps a run with its outcome and finish time.
func (db *DB) FinishRun(ctx context.Context, runID, outcome, detail string, finishedAt int64) error {
	result, err := db.ExecContext(ctx,
		"UPDATE runs SET outcome = ?, detail = ?, finished_at = ? WHERE run_id = ?",
		outcome, detail, finishedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finish result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun returns a run by id, or nil if it does not exist.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT run_id, route_id, label, mode, speed_multiplier,
			start_segment_idx, end_segment_idx, dry_run, outcome, detail,
			started_at, finished_at
		FROM runs WHERE run_id = ?`, runID)

	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recently started runs, newest first. A
// limit of zero or less falls back to 50.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, route_id, label, mode, speed_multiplier,
			start_segment_idx, end_segment_idx, dry_run, outcome, detail,
			started_at, finished_at
		FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func scanRun(scan func(dest ...interface{}) error) (Run, error) {
	var (
		run      Run
		dryRun   int
		outcome  sql.NullString
		detail   sql.NullString
		finished sql.NullInt64
	)

	err := scan(
		&run.RunID, &run.RouteID, &run.Label, &run.Mode, &run.SpeedMultiplier,
		&run.StartSegmentIdx, &run.EndSegmentIdx, &dryRun, &outcome, &detail,
		&run.StartedAt, &finished,
	)
	if err != nil {
		return Run{}, err
	}

	run.DryRun = dryRun == 1
	run.Outcome = outcome.String
	run.Detail = detail.String
	run.FinishedAt = finished.Int64
	return run, nil
}
