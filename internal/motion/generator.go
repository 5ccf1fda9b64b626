package motion

import (
	"math"

	"github.com/routecast/navrig/internal/geo"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/units"
)

// Profile configures the kinematic envelope the generator applies on top of
// the per-segment speed profiles.
type Profile struct {
	// CruiseSpeedKmh caps every sample and anchors turn slowdown targets.
	CruiseSpeedKmh float64 `json:"cruiseSpeedKmh" yaml:"cruise_speed_kmh"`
	// AccelMps2 bounds how fast consecutive samples may gain speed.
	AccelMps2 float64 `json:"accelMps2" yaml:"accel_mps2"`
	// DecelMps2 bounds braking into junction speed constraints.
	DecelMps2 float64 `json:"decelMps2" yaml:"decel_mps2"`
	// TurnSlowdownFactorPerDeg lowers a segment's target speed by this many
	// km/h per degree of heading change at its entry junction.
	TurnSlowdownFactorPerDeg float64 `json:"turnSlowdownFactorPerDeg" yaml:"turn_slowdown_factor_per_deg"`
	// MinTurnSpeedKmh floors the turn slowdown target.
	MinTurnSpeedKmh float64 `json:"minTurnSpeedKmh" yaml:"min_turn_speed_kmh"`
	// TurnRateDegS, when positive, replaces instantaneous heading changes at
	// junctions with a stationary turn-in-place phase at this angular rate.
	TurnRateDegS float64 `json:"turnRateDegS" yaml:"turn_rate_deg_s"`
	// StartHoldS keeps the vehicle stationary at the route start for this
	// many seconds before moving.
	StartHoldS float64 `json:"startHoldS" yaml:"start_hold_s"`
	// StartSpeedKmh and StartSpeedS describe a fixed-speed lead-in phase
	// that consumes route distance before profile-driven traversal begins.
	StartSpeedKmh float64 `json:"startSpeedKmh" yaml:"start_speed_kmh"`
	StartSpeedS   float64 `json:"startSpeedS" yaml:"start_speed_s"`
}

// DefaultProfile returns the envelope used when no profile is configured.
func DefaultProfile() Profile {
	return Profile{
		CruiseSpeedKmh:           40.0,
		AccelMps2:                2.0,
		DecelMps2:                3.0,
		TurnSlowdownFactorPerDeg: 0.2,
		MinTurnSpeedKmh:          8.0,
	}
}

const (
	// minDtS is the floor applied to caller-supplied sample intervals.
	minDtS = 0.001
	// minAvgSpeedMps keeps segment pacing finite when a profile's average
	// speed degenerates to zero.
	minAvgSpeedMps = 0.0001
	// creepSpeedMps is the nominal rolling speed reported during
	// turn-in-place phases (1 km/h).
	creepSpeedMps = 1.0 / 3.6
)

// Generator produces motion plans from routes.
type Generator struct {
	profile Profile
}

// NewGenerator returns a Generator using the given kinematic envelope.
func NewGenerator(profile Profile) *Generator {
	return &Generator{profile: profile}
}

// Profile returns the generator's kinematic envelope.
func (g *Generator) Profile() Profile { return g.profile }

func (g *Generator) validate(dtS float64) error {
	p := g.profile
	if dtS <= 0 {
		return route.Validationf("dt must be > 0, got %v", dtS)
	}
	if p.TurnRateDegS < 0 {
		return route.Validationf("turnRateDegS must be >= 0, got %v", p.TurnRateDegS)
	}
	if p.StartHoldS < 0 {
		return route.Validationf("startHoldS must be >= 0, got %v", p.StartHoldS)
	}
	if p.StartSpeedS < 0 {
		return route.Validationf("startSpeedS must be >= 0, got %v", p.StartSpeedS)
	}
	if p.StartSpeedKmh < 0 {
		return route.Validationf("startSpeedKmh must be >= 0, got %v", p.StartSpeedKmh)
	}
	if p.StartSpeedS > 0 && p.StartSpeedKmh <= 0 {
		return route.Validationf("startSpeedKmh must be > 0 when startSpeedS is set")
	}
	return nil
}

// Generate walks the selected segments of the route and returns the sampled
// trajectory. dtS is the nominal sample interval; values below 1 ms are
// clamped up. Routes with fewer than two waypoints or no segments produce an
// empty plan.
func (g *Generator) Generate(r *route.Route, segRange route.SegmentRange, dtS float64) (*Plan, error) {
	if err := g.validate(dtS); err != nil {
		return nil, err
	}
	dt := math.Max(dtS, minDtS)

	if r == nil || len(r.Waypoints) < 2 || len(r.Segments) == 0 {
		return &Plan{}, nil
	}
	rng, err := segRange.Normalize(len(r.Segments))
	if err != nil {
		return nil, err
	}

	p := g.profile
	cruise := units.KmhToMps(p.CruiseSpeedKmh)
	minTurn := units.KmhToMps(math.Max(p.MinTurnSpeedKmh, 1.0))

	// Per-segment geometry and turn-limited target speeds, indexed relative
	// to the range start.
	n := rng.End - rng.Start + 1
	lengths := make([]float64, n)
	bearings := make([]float64, n)
	targets := make([]float64, n)
	for k := 0; k < n; k++ {
		seg := r.Segments[rng.Start+k]
		a, b := r.Waypoints[seg.From], r.Waypoints[seg.To]
		lengths[k] = geo.HaversineM(a.Lat, a.Lon, b.Lat, b.Lon)
		bearings[k] = geo.InitialBearingDeg(a.Lat, a.Lon, b.Lat, b.Lon)

		target := cruise
		if k > 0 {
			angle := geo.TurnAngleDeg(bearings[k-1], bearings[k])
			target = math.Max(minTurn, cruise-units.KmhToMps(p.TurnSlowdownFactorPerDeg*angle))
		}
		targets[k] = math.Min(cruise, math.Max(0, target))
	}

	plan := &Plan{}
	tCursor := 0.0
	prevEnd := 0.0   // speed carried into the next segment's profile
	lastSpeed := 0.0 // speed of the most recently emitted sample

	emit := func(t, lat, lon, speed, bearing float64, segIdx int, progress float64) {
		plan.Points = append(plan.Points, Point{
			T: t, Lat: lat, Lon: lon,
			SpeedMps: speed, BearingDeg: bearing,
			SegmentIdx: segIdx, SegmentProgress: progress,
		})
		lastSpeed = speed
	}

	firstSeg := r.Segments[rng.Start]
	startWp := r.Waypoints[firstSeg.From]

	// Stationary hold and fixed-speed lead-in precede profile traversal.
	// Both start from an explicit zero-speed sample at the route start.
	if p.StartHoldS > 0 || p.StartSpeedS > 0 {
		emit(0, startWp.Lat, startWp.Lon, 0, bearings[0], rng.Start, 0)
	}
	if p.StartHoldS > 0 {
		holdSteps := int(math.Ceil(p.StartHoldS / dt))
		for i := 0; i < holdSteps; i++ {
			tCursor += dt
			emit(tCursor, startWp.Lat, startWp.Lon, 0, bearings[0], rng.Start, 0)
		}
	}

	resumeIdx := rng.Start
	resumeOffset := 0.0
	if p.StartSpeedS > 0 {
		startSpeed := units.KmhToMps(math.Min(p.StartSpeedKmh, p.CruiseSpeedKmh))
		remainingS := p.StartSpeedS
		segIdx := rng.Start
		segOffset := 0.0
		for remainingS > 0 && segIdx <= rng.End {
			k := segIdx - rng.Start
			segLen := lengths[k]
			if segLen <= 0 {
				segIdx++
				segOffset = 0
				continue
			}
			seg := r.Segments[segIdx]
			from, to := r.Waypoints[seg.From], r.Waypoints[seg.To]

			dtEff := math.Min(dt, remainingS)
			stepM := startSpeed * dtEff
			if remM := segLen - segOffset; stepM > remM {
				stepM = remM
				dtEff = stepM / startSpeed
			}
			if dtEff <= 0 || stepM <= 0 {
				break
			}

			segOffset += stepM
			ratio := segOffset / segLen
			lat, lon := geo.Interpolate(from.Lat, from.Lon, to.Lat, to.Lon, ratio)
			tCursor += dtEff
			emit(tCursor, lat, lon, startSpeed, bearings[k], segIdx, ratio)
			remainingS -= dtEff

			if segOffset >= segLen {
				segIdx++
				segOffset = 0
			}
		}
		prevEnd = startSpeed
		resumeIdx = segIdx
		resumeOffset = segOffset
		if resumeIdx > rng.End {
			return plan, nil
		}
	}

	for idx := resumeIdx; idx <= rng.End; idx++ {
		k := idx - rng.Start
		segLen := lengths[k]
		if segLen <= 0 {
			continue
		}
		seg := r.Segments[idx]
		from, to := r.Waypoints[seg.From], r.Waypoints[seg.To]
		brg := bearings[k]
		target := targets[k]

		// Junction analysis toward the next segment in range. The last
		// segment is unconstrained: its profile owns the ending speed.
		nextConstraint := -1.0
		turnInPlace := false
		turnDelta := 0.0
		if k+1 < n {
			turnDelta = geo.SignedDeltaDeg(brg, bearings[k+1])
			if p.TurnRateDegS > 0 && turnDelta != 0 {
				turnInPlace = true
				nextConstraint = 0 // must shed speed to rotate in place
			} else {
				nextConstraint = targets[k+1]
			}
		}

		offset := 0.0
		if idx == resumeIdx {
			offset = resumeOffset
		}
		span := segLen - offset
		entrySpeed := prevEnd

		if span > 0 {
			avg := math.Max(minAvgSpeedMps, seg.Profile.AvgSpeed(span, entrySpeed))
			steps := int(span / avg / dt)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i <= steps; i++ {
				frac := float64(i) / float64(steps)
				s := offset + span*frac
				progress := s / segLen

				speed := math.Min(seg.Profile.SpeedAt(s, segLen, entrySpeed), target)
				if nextConstraint >= 0 {
					rem := segLen - s
					vAllow := math.Sqrt(math.Max(0, nextConstraint*nextConstraint+2*p.DecelMps2*rem))
					speed = math.Min(speed, vAllow)
				}
				if len(plan.Points) > 0 {
					speed = math.Min(speed, lastSpeed+p.AccelMps2*dt)
				}
				speed = math.Max(0, speed)

				if i == 0 && len(plan.Points) > 0 {
					// The junction sample already exists from the previous
					// segment or lead-in phase.
					continue
				}
				lat, lon := geo.Interpolate(from.Lat, from.Lon, to.Lat, to.Lon, progress)
				emit(tCursor+float64(i)*dt, lat, lon, speed, brg, idx, progress)
			}
			tCursor += float64(steps) * dt
			prevEnd = lastSpeed
		}

		if sp, ok := seg.Profile.(route.StopAtEnd); ok && sp.StopDurationS > 0 {
			stopSteps := int(sp.StopDurationS / dt)
			if stopSteps < 1 {
				stopSteps = 1
			}
			for i := 1; i <= stopSteps; i++ {
				emit(tCursor+float64(i)*dt, to.Lat, to.Lon, 0, brg, idx, 1.0)
			}
			tCursor += float64(stopSteps) * dt
			prevEnd = 0
		}

		if turnInPlace {
			remaining := math.Abs(turnDelta)
			dir := 1.0
			if turnDelta < 0 {
				dir = -1.0
			}
			turnBearing := brg
			for remaining > 0 {
				stepAngle := math.Min(p.TurnRateDegS*dt, remaining)
				stepDt := stepAngle / p.TurnRateDegS
				tCursor += stepDt
				turnBearing = geo.NormalizeBearingDeg(turnBearing + dir*stepAngle)
				emit(tCursor, to.Lat, to.Lon, creepSpeedMps, turnBearing, idx, 1.0)
				remaining -= stepAngle
			}
			prevEnd = creepSpeedMps
		}
	}

	return plan, nil
}
