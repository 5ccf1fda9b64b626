package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecast/navrig/internal/route"
)

func TestSummarize(t *testing.T) {
	r := &route.Route{
		ID: "summary",
		Waypoints: []route.Waypoint{
			{Lat: 0, Lon: 0},
			{Lat: kmLatDeg, Lon: 0},
			{Lat: kmLatDeg + 0.0017986, Lon: 0},
		},
		Segments: []route.Segment{
			{From: 0, To: 1, Profile: route.Constant{SpeedKmh: 36}},
			{From: 1, To: 2, Profile: route.StopAtEnd{StopDurationS: 3}},
		},
	}
	plan, err := NewGenerator(DefaultProfile()).Generate(r, route.FullRange(), 1.0)
	require.NoError(t, err)

	s := plan.Summarize()
	assert.Equal(t, len(plan.Points), s.Samples)
	assert.Equal(t, plan.Duration(), s.DurationS)
	assert.InDelta(t, 10.0, s.MaxSpeedMps, 1e-9)
	assert.Less(t, s.MeanSpeedMps, s.MaxSpeedMps)
	assert.Greater(t, s.MeanSpeedMps, 0.0)
	assert.LessOrEqual(t, s.P50SpeedMps, s.P85SpeedMps)
	assert.LessOrEqual(t, s.P85SpeedMps, s.MaxSpeedMps)
	assert.GreaterOrEqual(t, s.StationaryS, 3.0)
	assert.Equal(t, 0, s.SegmentsFirst)
	assert.Equal(t, 1, s.SegmentsLast)
	assert.Greater(t, s.DistanceM, 0.0)
}

func TestSummarizeEmpty(t *testing.T) {
	var p *Plan
	assert.Equal(t, Stats{}, p.Summarize())
	assert.Equal(t, Stats{}, (&Plan{}).Summarize())
}
