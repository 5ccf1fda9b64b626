package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/security"
	"github.com/routecast/navrig/internal/sim"
)

// Pipeline generates the artifacts for one live run: the motion plan, NMEA
// sentence files for reference, and the IQ sample files the transmitter
// plays. Artifact names derive from the sanitized route id, so one route's
// artifacts overwrite its previous generation.
type Pipeline struct {
	motionGen *motion.Generator
	nmea      *NmeaGenerator
	iq        IQWriter
	outputDir string
}

// NewPipeline wires the three generators over outputDir. An empty outputDir
// defaults to "output".
func NewPipeline(motionGen *motion.Generator, nmea *NmeaGenerator, iq IQWriter, outputDir string) *Pipeline {
	if outputDir == "" {
		outputDir = "output"
	}
	return &Pipeline{motionGen: motionGen, nmea: nmea, iq: iq, outputDir: outputDir}
}

// OutputDir reports where artifacts land.
func (p *Pipeline) OutputDir() string { return p.outputDir }

// Generate implements sim.Pipeline. The fixed artifacts describe a
// stationary position at the first selected waypoint, giving receivers
// fixedDurationS seconds to acquire lock before the route signal starts.
func (p *Pipeline) Generate(ctx context.Context, r *route.Route, segRange route.SegmentRange, dtS, fixedDurationS float64) (*sim.PlaybackPlan, error) {
	if r == nil {
		return nil, route.Validationf("no route to generate")
	}
	norm, err := segRange.Normalize(len(r.Segments))
	if err != nil {
		return nil, err
	}
	plan, err := p.motionGen.Generate(r, norm, dtS)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, err
	}

	tag := security.SanitizeRouteTag(r.ID)
	nmeaRoutePath := filepath.Join(p.outputDir, tag+"_route.nmea")
	nmeaFixedPath := filepath.Join(p.outputDir, tag+"_fixed.nmea")
	iqRoutePath := filepath.Join(p.outputDir, tag+"_route.iq")
	iqFixedPath := filepath.Join(p.outputDir, tag+"_fixed.iq")
	for _, path := range []string{nmeaRoutePath, nmeaFixedPath, iqRoutePath, iqFixedPath} {
		if err := security.ValidatePathWithinDirectory(path, p.outputDir); err != nil {
			return nil, err
		}
	}

	startTime := time.Now().UTC()
	if err := p.nmea.Generate(plan, nmeaRoutePath, startTime); err != nil {
		return nil, fmt.Errorf("route nmea: %w", err)
	}
	startWp := r.Waypoints[r.Segments[norm.Start].From]
	if err := p.nmea.GenerateFixed(startWp.Lat, startWp.Lon, fixedDurationS, dtS, nmeaFixedPath, startTime); err != nil {
		return nil, fmt.Errorf("fixed nmea: %w", err)
	}

	if err := p.iq.WriteFixed(ctx, startWp.Lat, startWp.Lon, fixedDurationS, iqFixedPath); err != nil {
		return nil, fmt.Errorf("fixed iq: %w", err)
	}
	if err := p.iq.WriteRoute(ctx, plan, iqRoutePath); err != nil {
		return nil, fmt.Errorf("route iq: %w", err)
	}

	monitoring.Logf("Generated playback artifacts for route %q (%d samples) in %s", r.ID, len(plan.Points), p.outputDir)
	return &sim.PlaybackPlan{
		Motion:        plan,
		FixedArtifact: iqFixedPath,
		RouteArtifact: iqRoutePath,
	}, nil
}
