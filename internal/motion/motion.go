// Package motion turns a route into a time-ordered trajectory of position,
// speed and bearing samples. The generator walks the selected segments,
// paces sampling by each segment profile's average speed, and layers a
// kinematic envelope on top: turn slowdown targets, a braking envelope into
// junctions, optional stationary start-hold and fixed-speed lead-in phases,
// and turn-in-place rotation at junctions when a turn rate is configured.
package motion

import "math"

// Point is one trajectory sample. T is seconds from plan start.
type Point struct {
	T               float64 `json:"t"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	SpeedMps        float64 `json:"speedMps"`
	BearingDeg      float64 `json:"bearingDeg"`
	SegmentIdx      int     `json:"segmentIdx"`
	SegmentProgress float64 `json:"segmentProgress"`
}

// Plan is an ordered trajectory. Sample times are strictly increasing and
// start at zero.
type Plan struct {
	Points []Point `json:"points"`
}

// Duration returns the time span of the plan in seconds.
func (p *Plan) Duration() float64 {
	if p == nil || len(p.Points) == 0 {
		return 0
	}
	return p.Points[len(p.Points)-1].T
}

// DistanceM returns the approximate ground distance covered by the plan,
// integrating speed over the sample intervals.
func (p *Plan) DistanceM() float64 {
	if p == nil || len(p.Points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		dt := p.Points[i].T - p.Points[i-1].T
		total += p.Points[i].SpeedMps * dt
	}
	return total
}

// MaxSpeedMps returns the fastest sample in the plan.
func (p *Plan) MaxSpeedMps() float64 {
	max := 0.0
	if p == nil {
		return 0
	}
	for _, pt := range p.Points {
		max = math.Max(max, pt.SpeedMps)
	}
	return max
}
