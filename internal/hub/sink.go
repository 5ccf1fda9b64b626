package hub

import (
	"math"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/sim"
)

// Sink adapts the hub into the event sink a simulation run drives. Stage
// changes go to the state topic, telemetry samples to the data topic.
type Sink struct {
	hub *Hub
}

// NewSink wraps hub.
func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub}
}

// OnState announces a playback stage. Delivery is best effort; a run keeps
// going with zero listeners.
func (s *Sink) OnState(stage, detail string) {
	payload := map[string]interface{}{
		"type":  "state",
		"stage": stage,
	}
	if detail != "" {
		payload["detail"] = detail
	}
	s.hub.Publish(payload, "state")
}

// OnData publishes one telemetry sample. It returns sim.ErrNoSubscribers
// when nobody received the sample, which winds the run down.
func (s *Sink) OnData(pt motion.Point) error {
	payload := map[string]interface{}{
		"type":            "data",
		"t":               round3(pt.T),
		"lat":             pt.Lat,
		"lon":             pt.Lon,
		"speed":           round3(pt.SpeedMps),
		"bearing":         round2(pt.BearingDeg),
		"segmentIdx":      pt.SegmentIdx,
		"segmentProgress": round3(pt.SegmentProgress),
	}
	if s.hub.Publish(payload, "data") == 0 {
		return sim.ErrNoSubscribers
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
