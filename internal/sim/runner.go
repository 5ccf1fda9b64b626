package sim

import (
	"context"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/route"
)

// demoRunner generates a motion plan on the fly and replays it against the
// actuator. No RF artifacts are produced. The actuator is rested when the
// run ends, however it ends.
type demoRunner struct {
	gen    *motion.Generator
	player *Player
}

// NewDemoRunner builds the demo-mode runner.
func NewDemoRunner(gen *motion.Generator, player *Player) DemoRunner {
	return &demoRunner{gen: gen, player: player}
}

func (r *demoRunner) Run(ctx context.Context, rt *route.Route, segRange route.SegmentRange, dtS, speedMultiplier float64) error {
	plan, err := r.gen.Generate(rt, segRange, dtS)
	if err != nil {
		return err
	}
	defer func() {
		if serr := r.player.Stop(); serr != nil {
			monitoring.Logf("Error resting actuator after demo run: %v", serr)
		}
	}()
	return r.player.Play(ctx, plan, speedMultiplier)
}

// liveRunner generates playback artifacts and hands them to the orchestrator.
type liveRunner struct {
	pipeline Pipeline
	playback *Orchestrator
}

// NewLiveRunner builds the live-mode runner around an artifact pipeline and
// a playback orchestrator.
func NewLiveRunner(pipeline Pipeline, playback *Orchestrator) LiveRunner {
	return &liveRunner{pipeline: pipeline, playback: playback}
}

func (r *liveRunner) Run(ctx context.Context, rt *route.Route, segRange route.SegmentRange, dtS, fixedDurationS, speedMultiplier float64) error {
	plan, err := r.pipeline.Generate(ctx, rt, segRange, dtS, fixedDurationS)
	if err != nil {
		return err
	}
	return r.playback.Play(ctx, plan, speedMultiplier)
}
