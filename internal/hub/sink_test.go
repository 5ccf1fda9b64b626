package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/sim"
)

func TestSinkOnStatePayload(t *testing.T) {
	h := New(nil)
	c := &memberClient{}
	h.Add(c)

	sink := NewSink(h)
	sink.OnState("gps_fixed", "")
	sink.OnState("preparing", "generating artifacts")

	got := c.received()
	require.Len(t, got, 2)

	first, ok := got[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "state", first["type"])
	assert.Equal(t, "gps_fixed", first["stage"])
	_, hasDetail := first["detail"]
	assert.False(t, hasDetail)

	second := got[1].(map[string]interface{})
	assert.Equal(t, "preparing", second["stage"])
	assert.Equal(t, "generating artifacts", second["detail"])
}

func TestSinkOnStateWithoutListenersIsSilent(t *testing.T) {
	h := New(nil)
	c := &memberClient{}
	h.Add(c, "data") // not interested in state announcements

	sink := NewSink(h)
	sink.OnState("completed", "")
	assert.Empty(t, c.received())
}

func TestSinkOnDataPayloadRounding(t *testing.T) {
	h := New(nil)
	c := &memberClient{}
	h.Add(c)

	sink := NewSink(h)
	err := sink.OnData(motion.Point{
		T:               1.23456,
		Lat:             59.3293001,
		Lon:             18.0685999,
		SpeedMps:        13.88888,
		BearingDeg:      123.4567,
		SegmentIdx:      2,
		SegmentProgress: 0.33333,
	})
	require.NoError(t, err)

	got := c.received()
	require.Len(t, got, 1)
	payload := got[0].(map[string]interface{})

	assert.Equal(t, "data", payload["type"])
	assert.Equal(t, 1.235, payload["t"])
	assert.Equal(t, 13.889, payload["speed"])
	assert.Equal(t, 123.46, payload["bearing"])
	assert.Equal(t, 0.333, payload["segmentProgress"])
	assert.Equal(t, 2, payload["segmentIdx"])

	// Coordinates keep full precision.
	assert.Equal(t, 59.3293001, payload["lat"])
	assert.Equal(t, 18.0685999, payload["lon"])
}

func TestSinkOnDataNoSubscribers(t *testing.T) {
	h := New(nil)
	sink := NewSink(h)

	err := sink.OnData(motion.Point{T: 1})
	assert.ErrorIs(t, err, sim.ErrNoSubscribers)

	// A client subscribed elsewhere does not count for data.
	c := &memberClient{}
	h.Add(c)
	h.UpdateTopics(c, []string{"state"})
	err = sink.OnData(motion.Point{T: 2})
	assert.ErrorIs(t, err, sim.ErrNoSubscribers)
}
