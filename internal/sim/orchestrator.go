package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Playback stage names reported through the event sink.
const (
	StagePreparing = "preparing"
	StageGpsFixed  = "gps_fixed"
	StageGpsRoute  = "gps_route"
	StageCompleted = "completed"
)

// Orchestrator sequences a live playback: first a stationary fixed-position
// signal so receivers can acquire lock, then the route signal and the motion
// telemetry side by side.
type Orchestrator struct {
	gps    Transmitter
	player *Player
	events EventSink
}

// NewOrchestrator wires a transmitter and a player under one playback.
func NewOrchestrator(gps Transmitter, player *Player, events EventSink) *Orchestrator {
	return &Orchestrator{gps: gps, player: player, events: events}
}

// Play runs the full live sequence and blocks until it finishes or fails.
// The first leg to fail cancels the other.
func (o *Orchestrator) Play(ctx context.Context, plan *PlaybackPlan, speedMultiplier float64) error {
	if plan.FixedArtifact != "" {
		o.events.OnState(StageGpsFixed, "")
		if err := o.gps.PlaySignal(ctx, plan.FixedArtifact); err != nil {
			return fmt.Errorf("fixed signal: %w", err)
		}
	}

	o.events.OnState(StageGpsRoute, "")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.gps.PlaySignal(gctx, plan.RouteArtifact)
	})
	g.Go(func() error {
		return o.player.Play(gctx, plan.Motion, speedMultiplier)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	o.events.OnState(StageCompleted, "")
	return nil
}

// Stop aborts both legs of an in-flight playback. Both devices are stopped
// even if one of them errors.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return o.gps.Stop(ctx) })
	g.Go(func() error { return o.player.Stop() })
	return g.Wait()
}
