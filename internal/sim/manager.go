package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/route"
)

// ManagerConfig tunes the run defaults applied when a request leaves a value
// unset.
type ManagerConfig struct {
	// DemoSpeedMultiplierDefault replaces a non-positive multiplier on demo
	// runs.
	DemoSpeedMultiplierDefault float64

	// DemoDtS and LiveDtS are the plan sampling intervals handed to the
	// runners, in seconds.
	DemoDtS float64
	LiveDtS float64

	// LiveFixedDurationS is how long the stationary acquisition signal lasts
	// before route playback starts.
	LiveFixedDurationS float64

	// DryRunDefault applies when a run request does not say either way.
	DryRunDefault bool
}

// DefaultManagerConfig mirrors the live hardware timings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		DemoSpeedMultiplierDefault: 10.0,
		DemoDtS:                    0.1,
		LiveDtS:                    0.1,
		LiveFixedDurationS:         60.0,
		DryRunDefault:              true,
	}
}

// ManagerDeps collects the manager's collaborators. Recorder and Tracer are
// optional.
type ManagerDeps struct {
	Hub      Publisher
	Events   EventSink
	Factory  RunnerFactory
	Recorder RunRecorder
	Tracer   trace.Tracer
}

// RunParams describes one requested run. The pointer fields are tri-state:
// nil means "use the configured default".
type RunParams struct {
	Route           *route.Route
	Range           route.SegmentRange
	Mode            Mode
	SpeedMultiplier float64
	DryRun          *bool
	EnableSignal    *bool
	EnableActuator  *bool
}

// RunInfo reports how an accepted run was configured.
type RunInfo struct {
	RunID           string
	Label           string
	SpeedMultiplier float64
}

// Manager owns the simulation lifecycle. At most one run is active at a time;
// Run starts it in the background and Stop tears it down.
type Manager struct {
	cfg     ManagerConfig
	hub     Publisher
	events  EventSink
	factory RunnerFactory
	rec     RunRecorder
	tracer  trace.Tracer

	mu            sync.Mutex
	state         State
	task          *runTask
	livePlayback  Stopper
	stopRequested bool
}

type runTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *runTask) isDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// runSpec is the fully resolved form of a RunParams, fixed at accept time.
type runSpec struct {
	route    *route.Route
	segRange route.SegmentRange
	mode     Mode
	label    string
	mult     float64
	flags    DeviceFlags
	runID    string
}

// NewManager builds a Manager in the idle state.
func NewManager(cfg ManagerConfig, deps ManagerDeps) *Manager {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("sim")
	}
	return &Manager{
		cfg:     cfg,
		hub:     deps.Hub,
		events:  deps.Events,
		factory: deps.Factory,
		rec:     deps.Recorder,
		tracer:  tracer,
		state:   StateIdle,
	}
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRunning reports whether a run is currently active.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task != nil && !m.task.isDone()
}

// ClientCount reports how many clients the hub is serving.
func (m *Manager) ClientCount() int {
	if m.hub == nil {
		return 0
	}
	return m.hub.Count()
}

// Run starts a simulation in the background and returns as soon as it is
// accepted. ErrAlreadyRunning is returned while a previous run is active.
// The run itself outlives ctx; ctx only scopes acceptance.
func (m *Manager) Run(ctx context.Context, params RunParams) (RunInfo, error) {
	if params.Route == nil {
		return RunInfo{}, route.Validationf("no route to simulate")
	}
	segRange, err := params.Range.Normalize(len(params.Route.Segments))
	if err != nil {
		return RunInfo{}, err
	}

	spec := m.resolve(params, segRange)

	m.mu.Lock()
	if m.task != nil && !m.task.isDone() {
		m.mu.Unlock()
		monitoring.Logf("Run rejected: simulation already running")
		return RunInfo{}, ErrAlreadyRunning
	}
	m.stopRequested = false
	m.livePlayback = nil
	m.setStateLocked(StateRunning)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	task := &runTask{cancel: cancel, done: make(chan struct{})}
	m.task = task
	m.mu.Unlock()

	if m.rec != nil {
		id, rerr := m.rec.InsertRun(ctx, RunStart{
			RouteID:         spec.route.ID,
			Mode:            spec.mode,
			Label:           spec.label,
			SpeedMultiplier: spec.mult,
			StartSegmentIdx: spec.segRange.Start,
			EndSegmentIdx:   spec.segRange.End,
			DryRun:          spec.flags.DryRun,
		})
		if rerr != nil {
			monitoring.Logf("Failed to record run start: %v", rerr)
		} else {
			spec.runID = id
		}
	}

	go m.supervise(runCtx, task, spec)

	return RunInfo{RunID: spec.runID, Label: spec.label, SpeedMultiplier: spec.mult}, nil
}

// Stop tears down the active run and blocks until it has fully wound down.
// Stopping when nothing is running resets the state to idle.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	task := m.task
	if task == nil || task.isDone() {
		monitoring.Logf("Stop requested but no simulation running")
		m.task = nil
		m.setStateLocked(StateIdle)
		m.mu.Unlock()
		return nil
	}
	m.stopRequested = true
	playback := m.livePlayback
	m.mu.Unlock()

	if playback != nil {
		if err := playback.Stop(ctx); err != nil {
			monitoring.Logf("Error during graceful playback stop: %v", err)
		}
	}

	task.cancel()
	<-task.done

	m.mu.Lock()
	m.task = nil
	m.livePlayback = nil
	m.setStateLocked(StateStopped)
	m.mu.Unlock()
	monitoring.Logf("Simulation stopped (manually)")
	return nil
}

// resolve applies configured defaults to a request.
func (m *Manager) resolve(params RunParams, segRange route.SegmentRange) runSpec {
	mode := params.Mode
	if mode == "" {
		mode = ModeDemo
	}

	label := "LIVE"
	mult := 1.0
	if mode == ModeDemo {
		mult = params.SpeedMultiplier
		if mult <= 0 {
			mult = m.cfg.DemoSpeedMultiplierDefault
		}
		label = fmt.Sprintf("DEMO (x%g)", mult)
	}

	flags := DeviceFlags{
		DryRun:         m.cfg.DryRunDefault,
		EnableSignal:   true,
		EnableActuator: true,
	}
	if params.DryRun != nil {
		flags.DryRun = *params.DryRun
	}
	if params.EnableSignal != nil {
		flags.EnableSignal = *params.EnableSignal
	}
	if params.EnableActuator != nil {
		flags.EnableActuator = *params.EnableActuator
	}

	return runSpec{
		route:    params.Route,
		segRange: segRange,
		mode:     mode,
		label:    label,
		mult:     mult,
		flags:    flags,
	}
}

// supervise drives one run to completion, classifies its outcome, and hands
// the manager back to a resting state. It is the only writer of task.done.
func (m *Manager) supervise(ctx context.Context, task *runTask, spec runSpec) {
	ctx, span := m.tracer.Start(ctx, "sim.run", trace.WithAttributes(
		attribute.String("sim.mode", string(spec.mode)),
		attribute.String("sim.route_id", spec.route.ID),
		attribute.Float64("sim.speed_multiplier", spec.mult),
		attribute.Bool("sim.dry_run", spec.flags.DryRun),
	))
	defer span.End()

	err := m.runEntry(ctx, spec)

	outcome := OutcomeCompleted
	detail := ""
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSubscribers):
		monitoring.Logf("All WebSocket clients disconnected. Stopping simulation.")
		outcome = OutcomeNoSubscribers
	case errors.Is(err, context.Canceled):
		outcome = OutcomeStopped
	default:
		monitoring.Logf("Simulation crashed: %v", err)
		span.RecordError(err)
		outcome = OutcomeFailed
		detail = err.Error()
	}

	if m.rec != nil && spec.runID != "" {
		if rerr := m.rec.FinishRun(context.Background(), spec.runID, outcome, detail); rerr != nil {
			monitoring.Logf("Failed to record run end: %v", rerr)
		}
	}

	m.cleanupAfterTask()
	close(task.done)
}

// runEntry builds the runner for the requested mode and executes it.
func (m *Manager) runEntry(ctx context.Context, spec runSpec) error {
	switch spec.mode {
	case ModeLive:
		m.events.OnState(StagePreparing, "")
		runner, playback, err := m.factory.Live(m.events, spec.flags)
		if err != nil {
			return fmt.Errorf("build live runner: %w", err)
		}
		m.mu.Lock()
		m.livePlayback = playback
		m.mu.Unlock()
		return runner.Run(ctx, spec.route, spec.segRange, m.cfg.LiveDtS, m.cfg.LiveFixedDurationS, 1.0)
	default:
		runner, err := m.factory.Demo(m.events, spec.flags)
		if err != nil {
			return fmt.Errorf("build demo runner: %w", err)
		}
		return runner.Run(ctx, spec.route, spec.segRange, m.cfg.DemoDtS, spec.mult)
	}
}

// cleanupAfterTask stops any retained live playback and settles the state.
// It runs regardless of how the run ended, so it uses a fresh context.
func (m *Manager) cleanupAfterTask() {
	m.mu.Lock()
	playback := m.livePlayback
	m.livePlayback = nil
	m.mu.Unlock()

	if playback != nil {
		if err := playback.Stop(context.Background()); err != nil {
			monitoring.Logf("Error stopping live playback: %v", err)
		}
	}

	m.mu.Lock()
	if !m.stopRequested && m.state == StateRunning {
		m.setStateLocked(StateIdle)
	}
	m.mu.Unlock()
}

// setStateLocked transitions the state and announces it on the state topic.
// Callers must hold m.mu.
func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	monitoring.Logf("Simulation state: %s", s)
	if m.hub != nil {
		m.hub.Publish(map[string]interface{}{"type": "state", "state": string(s)}, "state")
	}
}
