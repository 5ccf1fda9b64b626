package route

import (
	"math"

	"github.com/routecast/navrig/internal/units"
)

// Default longitudinal acceleration limits applied by profiles that shape
// their own entry or exit ramps.
const (
	DefaultAccelMps2 = 2.0
	DefaultDecelMps2 = 3.0
)

// SpeedProfile shapes vehicle speed along one segment. Implementations are
// pure functions of position and the speed the vehicle carried into the
// segment; they hold no state between calls.
type SpeedProfile interface {
	// SpeedAt returns the instantaneous speed in m/s at distanceAlongM
	// meters into a segment of segmentLenM meters, given the speed the
	// vehicle entered the segment with.
	SpeedAt(distanceAlongM, segmentLenM, prevSpeedMps float64) float64

	// AvgSpeed returns the representative mean speed in m/s used to pace
	// sample generation over the segment.
	AvgSpeed(segmentLenM, prevSpeedMps float64) float64

	// Kind returns the wire discriminator for this profile.
	Kind() string
}

// Profile kind discriminators used in JSON payloads.
const (
	KindConstant  = "constant"
	KindRampTo    = "ramp"
	KindCruiseTo  = "cruise"
	KindStopAtEnd = "stop"
)

// Constant holds a fixed speed across the whole segment.
type Constant struct {
	SpeedKmh float64 `json:"speedKmh"`
}

func (p Constant) SpeedAt(distanceAlongM, segmentLenM, prevSpeedMps float64) float64 {
	return units.KmhToMps(p.SpeedKmh)
}

func (p Constant) AvgSpeed(segmentLenM, prevSpeedMps float64) float64 {
	return units.KmhToMps(p.SpeedKmh)
}

func (p Constant) Kind() string { return KindConstant }

// RampTo interpolates linearly from the entry speed to the target over the
// segment length.
type RampTo struct {
	TargetKmh float64 `json:"targetKmh"`
}

func (p RampTo) SpeedAt(distanceAlongM, segmentLenM, prevSpeedMps float64) float64 {
	start := math.Max(prevSpeedMps, 0)
	target := units.KmhToMps(p.TargetKmh)
	progress := 0.0
	if segmentLenM > 0 {
		progress = distanceAlongM / segmentLenM
	}
	return start + (target-start)*progress
}

func (p RampTo) AvgSpeed(segmentLenM, prevSpeedMps float64) float64 {
	return (prevSpeedMps + units.KmhToMps(p.TargetKmh)) / 2
}

func (p RampTo) Kind() string { return KindRampTo }

// CruiseTo accelerates to the cruise speed, holds it, and sheds speed near
// the segment end so the vehicle exits at half the cruise speed.
type CruiseTo struct {
	SpeedKmh float64 `json:"speedKmh"`
}

func (p CruiseTo) SpeedAt(distanceAlongM, segmentLenM, prevSpeedMps float64) float64 {
	cruise := units.KmhToMps(p.SpeedKmh)
	start := prevSpeedMps
	accelDist := 0.0
	if start < cruise {
		accelTime := (cruise - start) / DefaultAccelMps2
		accelDist = start*accelTime + 0.5*DefaultAccelMps2*accelTime*accelTime
	} else {
		start = cruise
	}

	endTarget := cruise * 0.5
	decelTime := (cruise - endTarget) / DefaultDecelMps2
	decelDist := cruise*decelTime - 0.5*DefaultDecelMps2*decelTime*decelTime

	if distanceAlongM < accelDist {
		if accelDist > 0 {
			t := 0.0
			if distanceAlongM > 0 {
				t = math.Sqrt(2 * distanceAlongM / DefaultAccelMps2)
			}
			return start + DefaultAccelMps2*t
		}
		return cruise
	}
	if distanceAlongM < segmentLenM-decelDist {
		return cruise
	}
	remaining := segmentLenM - distanceAlongM
	if remaining > 0 && decelDist > 0 {
		vSquared := cruise*cruise - 2*DefaultDecelMps2*(decelDist-remaining)
		return math.Sqrt(math.Max(0, vSquared))
	}
	return endTarget
}

func (p CruiseTo) AvgSpeed(segmentLenM, prevSpeedMps float64) float64 {
	return units.KmhToMps(p.SpeedKmh) * 0.85
}

func (p CruiseTo) Kind() string { return KindCruiseTo }

// StopAtEnd holds the entry speed, then brakes at the default decel rate so
// speed reaches exactly zero at the segment end. StopDurationS is a dwell
// the generator inserts at the end waypoint before the next segment.
type StopAtEnd struct {
	StopDurationS float64 `json:"stopDurationS"`
}

// stopFallbackKmh is the assumed approach speed when the vehicle enters a
// stop segment with no carried speed.
const stopFallbackKmh = 25.0

func (p StopAtEnd) SpeedAt(distanceAlongM, segmentLenM, prevSpeedMps float64) float64 {
	start := prevSpeedMps
	if start <= 0 {
		start = units.KmhToMps(stopFallbackKmh)
	}
	stopDist := (start * start) / (2 * DefaultDecelMps2)
	if distanceAlongM < segmentLenM-stopDist {
		return start
	}
	remaining := segmentLenM - distanceAlongM
	if remaining > 0 {
		return math.Sqrt(math.Max(0, 2*DefaultDecelMps2*remaining))
	}
	return 0
}

func (p StopAtEnd) AvgSpeed(segmentLenM, prevSpeedMps float64) float64 {
	if prevSpeedMps > 0 {
		return prevSpeedMps * 0.5
	}
	return units.KmhToMps(20.0)
}

func (p StopAtEnd) Kind() string { return KindStopAtEnd }
