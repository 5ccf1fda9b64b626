package gen

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
)

// DefaultSampleRateHz matches the transmitter's expected IQ sample rate.
const DefaultSampleRateHz = 2600000

// IQWriter synthesizes IQ sample files for the transmitter.
type IQWriter interface {
	// WriteRoute renders the moving signal for plan into outPath.
	WriteRoute(ctx context.Context, plan *motion.Plan, outPath string) error

	// WriteFixed renders a stationary signal of durationS at lat, lon.
	WriteFixed(ctx context.Context, lat, lon, durationS float64, outPath string) error
}

// GpsSdrSimConfig configures the external gps-sdr-sim tool.
type GpsSdrSimConfig struct {
	// EphemerisPath points at the RINEX broadcast ephemeris file the tool
	// synthesizes satellites from.
	EphemerisPath string

	// ToolPath is the gps-sdr-sim binary, looked up on PATH when relative.
	ToolPath string

	// SampleRateHz is the output IQ sample rate. Zero means the default.
	SampleRateHz int

	// IQBits is the sample depth; gps-sdr-sim accepts 1, 8 or 16.
	IQBits int

	// AltitudeM is the altitude used for trajectories and fixed positions.
	AltitudeM float64

	// StartTime optionally pins the scenario start (passed as -t and -T).
	StartTime string

	// ExtraArgs are appended verbatim to every invocation.
	ExtraArgs []string
}

func (c GpsSdrSimConfig) withDefaults() GpsSdrSimConfig {
	if c.ToolPath == "" {
		c.ToolPath = "gps-sdr-sim"
	}
	if c.SampleRateHz == 0 {
		c.SampleRateHz = DefaultSampleRateHz
	}
	if c.IQBits == 0 {
		c.IQBits = 8
	}
	return c
}

// commandRunner abstracts subprocess execution so tests can intercept the
// tool invocation.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// GpsSdrSim shells out to gps-sdr-sim to synthesize GPS baseband signal
// files. Route signals feed the tool a time/lat/lon/alt trajectory file;
// fixed signals use a static location and duration.
type GpsSdrSim struct {
	cfg    GpsSdrSimConfig
	runner commandRunner
}

// NewGpsSdrSim builds the writer with defaults applied.
func NewGpsSdrSim(cfg GpsSdrSimConfig) *GpsSdrSim {
	return &GpsSdrSim{cfg: cfg.withDefaults(), runner: execRunner{}}
}

// WriteRoute implements IQWriter. The trajectory file placed next to outPath
// is removed once the tool finishes.
func (g *GpsSdrSim) WriteRoute(ctx context.Context, plan *motion.Plan, outPath string) error {
	if plan == nil || len(plan.Points) == 0 {
		return fmt.Errorf("empty motion plan")
	}
	args, err := g.baseArgs(outPath)
	if err != nil {
		return err
	}

	trajPath := outPath + ".traj"
	if err := writeTrajectory(plan, g.cfg.AltitudeM, trajPath); err != nil {
		return fmt.Errorf("write trajectory: %w", err)
	}
	defer os.Remove(trajPath)

	args = append(args, "-x", trajPath)
	args = append(args, g.cfg.ExtraArgs...)
	return g.run(ctx, args)
}

// WriteFixed implements IQWriter.
func (g *GpsSdrSim) WriteFixed(ctx context.Context, lat, lon, durationS float64, outPath string) error {
	if durationS <= 0 {
		return fmt.Errorf("fixed signal duration must be positive, got %g", durationS)
	}
	args, err := g.baseArgs(outPath)
	if err != nil {
		return err
	}
	args = append(args, "-l", fmt.Sprintf("%v,%v,%v", lat, lon, g.cfg.AltitudeM))
	args = append(args, "-d", strconv.Itoa(int(math.Round(durationS))))
	args = append(args, g.cfg.ExtraArgs...)
	return g.run(ctx, args)
}

func (g *GpsSdrSim) baseArgs(outPath string) ([]string, error) {
	switch g.cfg.IQBits {
	case 1, 8, 16:
	default:
		return nil, fmt.Errorf("iq bits must be 1, 8, or 16, got %d", g.cfg.IQBits)
	}
	if _, err := exec.LookPath(g.cfg.ToolPath); err != nil {
		return nil, fmt.Errorf("gps-sdr-sim tool: %w", err)
	}
	if _, err := os.Stat(g.cfg.EphemerisPath); err != nil {
		return nil, fmt.Errorf("ephemeris file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, err
	}

	args := []string{
		"-e", g.cfg.EphemerisPath,
		"-o", outPath,
		"-s", strconv.Itoa(g.cfg.SampleRateHz),
		"-b", strconv.Itoa(g.cfg.IQBits),
	}
	if g.cfg.StartTime != "" {
		args = append(args, "-t", g.cfg.StartTime, "-T", g.cfg.StartTime)
	}
	return args, nil
}

func (g *GpsSdrSim) run(ctx context.Context, args []string) error {
	monitoring.Logf("Generating IQ: %s %s", g.cfg.ToolPath, strings.Join(args, " "))
	stdout, stderr, err := g.runner.Run(ctx, g.cfg.ToolPath, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("gps-sdr-sim failed\ncmd: %s %s\nstdout: %s\nstderr: %s",
			g.cfg.ToolPath, strings.Join(args, " "), strings.TrimSpace(stdout), strings.TrimSpace(stderr))
	}
	return nil
}

// writeTrajectory renders the time-sorted lat/lon/alt track gps-sdr-sim
// expects for its -x flag.
func writeTrajectory(plan *motion.Plan, altM float64, path string) error {
	pts := append([]motion.Point(nil), plan.Points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].T < pts[j].T })

	var buf bytes.Buffer
	for _, pt := range pts {
		fmt.Fprintf(&buf, "%.3f,%.8f,%.8f,%.3f\n", pt.T, pt.Lat, pt.Lon, altM)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
