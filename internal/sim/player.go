package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/timeutil"
	"github.com/routecast/navrig/internal/units"
)

// minSpeedMultiplier guards against a zero or negative multiplier freezing
// playback between samples.
const minSpeedMultiplier = 0.001

// Player replays a motion plan in real time. Each sample drives the actuator
// and is forwarded to the event sink; inter-sample delays follow the plan's
// timestamps divided by the speed multiplier.
type Player struct {
	clock    timeutil.Clock
	events   EventSink
	actuator Actuator
}

// NewPlayer builds a Player. A nil clock falls back to the system clock.
func NewPlayer(clock timeutil.Clock, events EventSink, actuator Actuator) *Player {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Player{clock: clock, events: events, actuator: actuator}
}

// Play replays plan until it is exhausted, ctx is cancelled, or the sink
// rejects a sample.
func (p *Player) Play(ctx context.Context, plan *motion.Plan, speedMultiplier float64) error {
	if plan == nil || len(plan.Points) == 0 {
		return nil
	}
	mult := speedMultiplier
	if mult < minSpeedMultiplier {
		mult = minSpeedMultiplier
	}

	lastT := plan.Points[0].T
	for _, pt := range plan.Points {
		delay := time.Duration((pt.T - lastT) / mult * float64(time.Second))
		lastT = pt.T
		if delay > 0 {
			if err := p.wait(ctx, delay); err != nil {
				return err
			}
		}
		if err := p.actuator.SetSpeedKmh(units.MpsToKmh(pt.SpeedMps)); err != nil {
			return fmt.Errorf("actuator speed: %w", err)
		}
		if err := p.actuator.SetBearingDeg(pt.BearingDeg); err != nil {
			return fmt.Errorf("actuator bearing: %w", err)
		}
		if err := p.events.OnData(pt); err != nil {
			return err
		}
	}
	return nil
}

// Stop rests the actuator outputs.
func (p *Player) Stop() error {
	return p.actuator.Stop()
}

func (p *Player) wait(ctx context.Context, d time.Duration) error {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
