package motion

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a plan for previews and run records.
type Stats struct {
	Samples       int     `json:"samples"`
	DurationS     float64 `json:"durationS"`
	DistanceM     float64 `json:"distanceM"`
	MeanSpeedMps  float64 `json:"meanSpeedMps"`
	MaxSpeedMps   float64 `json:"maxSpeedMps"`
	P50SpeedMps   float64 `json:"p50SpeedMps"`
	P85SpeedMps   float64 `json:"p85SpeedMps"`
	StdDevSpeed   float64 `json:"stdDevSpeedMps"`
	StationaryS   float64 `json:"stationaryS"`
	SegmentsFirst int     `json:"firstSegmentIdx"`
	SegmentsLast  int     `json:"lastSegmentIdx"`
}

// Summarize computes summary statistics over the plan's samples. An empty
// plan yields a zero Stats.
func (p *Plan) Summarize() Stats {
	if p == nil || len(p.Points) == 0 {
		return Stats{}
	}

	speeds := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		speeds[i] = pt.SpeedMps
	}

	s := Stats{
		Samples:       len(p.Points),
		DurationS:     p.Duration(),
		DistanceM:     p.DistanceM(),
		MaxSpeedMps:   p.MaxSpeedMps(),
		MeanSpeedMps:  stat.Mean(speeds, nil),
		StdDevSpeed:   0,
		SegmentsFirst: p.Points[0].SegmentIdx,
		SegmentsLast:  p.Points[len(p.Points)-1].SegmentIdx,
	}
	if len(speeds) > 1 {
		s.StdDevSpeed = stat.StdDev(speeds, nil)
	}

	sorted := append([]float64(nil), speeds...)
	sort.Float64s(sorted)
	s.P50SpeedMps = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P85SpeedMps = stat.Quantile(0.85, stat.Empirical, sorted, nil)

	// Time spent at (near) standstill: dwell samples, holds and stops.
	var prevT float64
	for i, pt := range p.Points {
		if i > 0 && pt.SpeedMps < 0.05 {
			s.StationaryS += pt.T - prevT
		}
		prevT = pt.T
	}
	return s
}
