package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorPlaysFixedThenRoute(t *testing.T) {
	gps := &fakeTransmitter{}
	sink := &fakeSink{}
	player := NewPlayer(&recordingClock{}, sink, &fakeActuator{})
	orch := NewOrchestrator(gps, player, sink)

	plan := &PlaybackPlan{
		Motion:        testPlan(0, 1),
		FixedArtifact: "fixed.iq",
		RouteArtifact: "route.iq",
	}
	err := orch.Play(context.Background(), plan, 1.0)
	require.NoError(t, err)

	assert.Equal(t, []string{"fixed.iq", "route.iq"}, gps.playedLog())
	assert.Equal(t, []string{StageGpsFixed, StageGpsRoute, StageCompleted}, sink.stageLog())
	assert.Equal(t, 2, sink.pointCount())
}

func TestOrchestratorSkipsAbsentFixedSignal(t *testing.T) {
	gps := &fakeTransmitter{}
	sink := &fakeSink{}
	player := NewPlayer(&recordingClock{}, sink, &fakeActuator{})
	orch := NewOrchestrator(gps, player, sink)

	plan := &PlaybackPlan{Motion: testPlan(0), RouteArtifact: "route.iq"}
	err := orch.Play(context.Background(), plan, 1.0)
	require.NoError(t, err)

	assert.Equal(t, []string{"route.iq"}, gps.playedLog())
	assert.Equal(t, []string{StageGpsRoute, StageCompleted}, sink.stageLog())
}

func TestOrchestratorFixedSignalFailure(t *testing.T) {
	gps := &fakeTransmitter{failPath: "fixed.iq", playErr: errors.New("device busy")}
	sink := &fakeSink{}
	player := NewPlayer(&recordingClock{}, sink, &fakeActuator{})
	orch := NewOrchestrator(gps, player, sink)

	plan := &PlaybackPlan{Motion: testPlan(0), FixedArtifact: "fixed.iq", RouteArtifact: "route.iq"}
	err := orch.Play(context.Background(), plan, 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed signal")

	// Route playback never starts.
	assert.Equal(t, []string{"fixed.iq"}, gps.playedLog())
	assert.Equal(t, []string{StageGpsFixed}, sink.stageLog())
	assert.Equal(t, 0, sink.pointCount())
}

func TestOrchestratorPlayerFailureCancelsTransmitter(t *testing.T) {
	boom := errors.New("telemetry rejected")
	// The route leg parks on ctx so the player's failure has to cancel it.
	gps := &fakeTransmitter{blockPath: "route.iq"}
	sink := &fakeSink{errAt: 1, err: boom}
	player := NewPlayer(&recordingClock{}, sink, &fakeActuator{})
	orch := NewOrchestrator(gps, player, sink)

	plan := &PlaybackPlan{Motion: testPlan(0, 1), FixedArtifact: "fixed.iq", RouteArtifact: "route.iq"}
	err := orch.Play(context.Background(), plan, 1.0)
	require.ErrorIs(t, err, boom)
	assert.False(t, sink.sawStage(StageCompleted))
}

func TestOrchestratorStopHitsBothDevices(t *testing.T) {
	gps := &fakeTransmitter{}
	act := &fakeActuator{}
	player := NewPlayer(&recordingClock{}, &fakeSink{}, act)
	orch := NewOrchestrator(gps, player, &fakeSink{})

	require.NoError(t, orch.Stop(context.Background()))
	assert.Equal(t, 1, gps.stopCount())
	assert.Equal(t, 1, act.stopCount())
}
