package observability

import (
	"context"
	"sync"
	"time"

	"github.com/routecast/navrig/internal/sim"
	"github.com/routecast/navrig/internal/timeutil"
)

// RunRecorder decorates another run recorder with lifecycle metrics.
// Durations are measured here rather than read back from storage so a
// persistence failure cannot lose the observation.
type RunRecorder struct {
	next    sim.RunRecorder
	metrics *Collector
	clock   timeutil.Clock

	mu     sync.Mutex
	starts map[string]time.Time
}

var _ sim.RunRecorder = (*RunRecorder)(nil)

// NewRunRecorder wraps next. A nil clock uses the real one.
func NewRunRecorder(next sim.RunRecorder, metrics *Collector, clock timeutil.Clock) *RunRecorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunRecorder{
		next:    next,
		metrics: metrics,
		clock:   clock,
		starts:  make(map[string]time.Time),
	}
}

// InsertRun records the run and counts it against its mode. A run that the
// underlying recorder rejects is not counted.
func (r *RunRecorder) InsertRun(ctx context.Context, start sim.RunStart) (string, error) {
	id, err := r.next.InsertRun(ctx, start)
	if err != nil {
		return "", err
	}

	r.metrics.RunsStarted.WithLabelValues(string(start.Mode)).Inc()
	r.mu.Lock()
	r.starts[id] = r.clock.Now()
	r.mu.Unlock()
	return id, nil
}

// FinishRun counts the outcome and observes the run duration, then hands
// off to the underlying recorder.
func (r *RunRecorder) FinishRun(ctx context.Context, id, outcome, detail string) error {
	r.mu.Lock()
	started, ok := r.starts[id]
	delete(r.starts, id)
	r.mu.Unlock()

	r.metrics.RunsFinished.WithLabelValues(outcome).Inc()
	if ok {
		r.metrics.RunDuration.Observe(r.clock.Now().Sub(started).Seconds())
	}
	return r.next.FinishRun(ctx, id, outcome, detail)
}
