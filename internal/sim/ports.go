// Package sim coordinates simulation runs. A Manager owns the lifecycle state
// machine and starts at most one run at a time; runners pace motion plans
// through a Player, and an Orchestrator layers RF signal playback on top for
// live runs. Concrete devices plug in through the interfaces defined here.
package sim

import (
	"context"
	"fmt"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/route"
)

// State is the lifecycle state of the simulation Manager.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Mode selects how a run sources and paces its motion.
type Mode string

const (
	// ModeDemo replays a freshly generated plan against the actuator only,
	// optionally compressed in time by a speed multiplier.
	ModeDemo Mode = "demo"

	// ModeLive generates RF artifacts up front, then drives transmitter and
	// actuator together in real time.
	ModeLive Mode = "live"
)

// ParseMode converts a wire string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDemo, ModeLive:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown simulation mode %q", s)
	}
}

// Transmitter plays IQ sample files over the air.
type Transmitter interface {
	// PlaySignal transmits the file at path, blocking until the transmission
	// finishes or ctx is cancelled.
	PlaySignal(ctx context.Context, path string) error

	// Stop aborts an in-flight transmission. Stopping an idle transmitter is
	// a no-op.
	Stop(ctx context.Context) error
}

// Actuator drives the physical speed and bearing outputs.
type Actuator interface {
	SetSpeedKmh(speedKmh float64) error
	SetBearingDeg(bearingDeg float64) error

	// Stop brings both outputs back to rest.
	Stop() error
}

// EventSink receives lifecycle stages and telemetry samples from a run.
type EventSink interface {
	// OnState reports a playback stage transition. Delivery is best effort.
	OnState(stage, detail string)

	// OnData delivers one telemetry sample. A non-nil error aborts playback;
	// ErrNoSubscribers means every client has disconnected.
	OnData(pt motion.Point) error
}

// Publisher fans structured payloads out to subscribed clients.
type Publisher interface {
	// Publish delivers payload to every subscriber of topic and reports how
	// many clients received it.
	Publish(payload interface{}, topic string) int

	// Count reports the number of connected clients.
	Count() int
}

// PlaybackPlan bundles a motion plan with the RF artifacts generated for it.
type PlaybackPlan struct {
	Motion *motion.Plan

	// FixedArtifact holds the stationary acquisition signal, RouteArtifact
	// the moving route signal. Both are paths to IQ sample files.
	FixedArtifact string
	RouteArtifact string
}

// Pipeline produces the playback artifacts for a live run.
type Pipeline interface {
	Generate(ctx context.Context, r *route.Route, segRange route.SegmentRange, dtS, fixedDurationS float64) (*PlaybackPlan, error)
}

// DeviceFlags selects which output devices a run drives and whether they are
// real or simulated. The factory resolves them into concrete devices.
type DeviceFlags struct {
	// DryRun substitutes timing-accurate stand-ins for the real hardware.
	DryRun bool

	// EnableSignal and EnableActuator gate the respective outputs. A
	// disabled device is replaced by a no-op implementation.
	EnableSignal   bool
	EnableActuator bool
}

// DemoRunner executes a demo-mode run to completion.
type DemoRunner interface {
	Run(ctx context.Context, r *route.Route, segRange route.SegmentRange, dtS, speedMultiplier float64) error
}

// LiveRunner executes a live-mode run to completion.
type LiveRunner interface {
	Run(ctx context.Context, r *route.Route, segRange route.SegmentRange, dtS, fixedDurationS, speedMultiplier float64) error
}

// Stopper aborts an in-flight playback from outside the run goroutine.
type Stopper interface {
	Stop(ctx context.Context) error
}

// RunnerFactory assembles runners wired to concrete devices.
type RunnerFactory interface {
	// Demo builds a runner that paces telemetry against the actuator only.
	Demo(events EventSink, flags DeviceFlags) (DemoRunner, error)

	// Live builds a runner that generates artifacts and plays them against
	// transmitter and actuator. The returned Stopper lets the manager abort
	// playback before cancelling the run.
	Live(events EventSink, flags DeviceFlags) (LiveRunner, Stopper, error)
}

// Run outcomes recorded when a run finishes.
const (
	OutcomeCompleted     = "completed"
	OutcomeStopped       = "stopped"
	OutcomeFailed        = "failed"
	OutcomeNoSubscribers = "no_subscribers"
)

// RunStart describes a run at the moment it is accepted.
type RunStart struct {
	RouteID         string
	Mode            Mode
	Label           string
	SpeedMultiplier float64
	StartSegmentIdx int
	EndSegmentIdx   int
	DryRun          bool
}

// RunRecorder persists run history. Implementations must not block a run on
// storage latency longer than necessary.
type RunRecorder interface {
	InsertRun(ctx context.Context, start RunStart) (string, error)
	FinishRun(ctx context.Context, id, outcome, detail string) error
}
