package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/routecast/navrig/internal/sim"
	"github.com/routecast/navrig/internal/timeutil"
)

// Recorder adapts the runs table to the manager's run-history port,
// assigning run ids and stamping wall-clock times.
type Recorder struct {
	db    *DB
	clock timeutil.Clock
}

var _ sim.RunRecorder = (*Recorder)(nil)

// NewRecorder wires a Recorder over db. A nil clock falls back to the
// real one.
func NewRecorder(db *DB, clock timeutil.Clock) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{db: db, clock: clock}
}

// InsertRun persists an accepted run and returns its assigned id.
func (r *Recorder) InsertRun(ctx context.Context, start sim.RunStart) (string, error) {
	run := Run{
		RunID:           uuid.NewString(),
		RouteID:         start.RouteID,
		Label:           start.Label,
		Mode:            string(start.Mode),
		SpeedMultiplier: start.SpeedMultiplier,
		StartSegmentIdx: start.StartSegmentIdx,
		EndSegmentIdx:   start.EndSegmentIdx,
		DryRun:          start.DryRun,
		StartedAt:       r.clock.Now().Unix(),
	}
	if err := r.db.InsertRun(ctx, run); err != nil {
		return "", err
	}
	return run.RunID, nil
}

// FinishRun stamps the outcome on a finished run.
func (r *Recorder) FinishRun(ctx context.Context, id, outcome, detail string) error {
	return r.db.FinishRun(ctx, id, outcome, detail, r.clock.Now().Unix())
}
