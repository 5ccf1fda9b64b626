// Package route holds the navigation route model: ordered waypoints joined
// by segments, each segment carrying a speed profile that shapes how the
// vehicle traverses it. Routes are pure data; kinematics live in the motion
// package.
package route

import (
	"fmt"
)

// Waypoint is a geographic position in decimal degrees.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Segment joins two waypoints by index and carries the speed profile used
// to traverse it.
type Segment struct {
	From    int          `json:"fromIdx"`
	To      int          `json:"toIdx"`
	Profile SpeedProfile `json:"-"`
}

// Route is an ordered list of waypoints with traversal segments.
type Route struct {
	ID        string     `json:"routeId"`
	Waypoints []Waypoint `json:"waypoints"`
	Segments  []Segment  `json:"segments"`
}

// ValidationError marks input that failed domain validation. The API layer
// maps it to a 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError with fmt-style formatting.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Validate checks route structural invariants: at least two waypoints, at
// least one segment, segment endpoints inside the waypoint list, and no
// degenerate self-loops.
func (r *Route) Validate() error {
	if r == nil {
		return Validationf("route is nil")
	}
	if len(r.Waypoints) < 2 {
		return Validationf("route %q needs at least 2 waypoints, got %d", r.ID, len(r.Waypoints))
	}
	if len(r.Segments) == 0 {
		return Validationf("route %q has no segments", r.ID)
	}
	for i, seg := range r.Segments {
		if seg.From < 0 || seg.From >= len(r.Waypoints) {
			return Validationf("route %q segment %d: fromIdx %d out of range", r.ID, i, seg.From)
		}
		if seg.To < 0 || seg.To >= len(r.Waypoints) {
			return Validationf("route %q segment %d: toIdx %d out of range", r.ID, i, seg.To)
		}
		if seg.From == seg.To {
			return Validationf("route %q segment %d: fromIdx equals toIdx (%d)", r.ID, i, seg.From)
		}
		if seg.Profile == nil {
			return Validationf("route %q segment %d: missing speed profile", r.ID, i)
		}
	}
	return nil
}

// SegmentRange selects a contiguous slice of a route's segments by index.
// End < 0 means "through the last segment".
type SegmentRange struct {
	Start int `json:"startSegmentIdx"`
	End   int `json:"endSegmentIdx"`
}

// FullRange selects every segment of a route.
func FullRange() SegmentRange {
	return SegmentRange{Start: 0, End: -1}
}

// Normalize resolves the open end against the route's segment count and
// validates the bounds.
func (sr SegmentRange) Normalize(segmentCount int) (SegmentRange, error) {
	out := sr
	if segmentCount <= 0 {
		return out, Validationf("segment range over empty route")
	}
	if out.End < 0 {
		out.End = segmentCount - 1
	}
	if out.Start < 0 || out.Start >= segmentCount {
		return out, Validationf("startSegmentIdx %d out of range [0, %d)", out.Start, segmentCount)
	}
	if out.End < out.Start || out.End >= segmentCount {
		return out, Validationf("endSegmentIdx %d out of range [%d, %d)", out.End, out.Start, segmentCount)
	}
	return out, nil
}
