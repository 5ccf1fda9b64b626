package gen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecast/navrig/internal/motion"
)

// captureRunner records the invocation in place of running the tool. When a
// -x flag is present the trajectory file is read before the caller deletes
// it.
type captureRunner struct {
	name   string
	args   []string
	traj   string
	stdout string
	stderr string
	err    error
}

func (r *captureRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.name = name
	r.args = append([]string(nil), args...)
	for i, a := range args {
		if a == "-x" && i+1 < len(args) {
			if data, err := os.ReadFile(args[i+1]); err == nil {
				r.traj = string(data)
			}
		}
	}
	return r.stdout, r.stderr, r.err
}

func sdrFixture(t *testing.T) (GpsSdrSimConfig, string) {
	t.Helper()
	dir := t.TempDir()
	tool := filepath.Join(dir, "gps-sdr-sim")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))
	eph := filepath.Join(dir, "brdc0010.22n")
	require.NoError(t, os.WriteFile(eph, []byte("ephemeris"), 0o644))
	return GpsSdrSimConfig{EphemerisPath: eph, ToolPath: tool}, dir
}

func TestGpsSdrSimWriteFixedArgs(t *testing.T) {
	cfg, dir := sdrFixture(t)
	runner := &captureRunner{}
	g := NewGpsSdrSim(cfg)
	g.runner = runner

	out := filepath.Join(dir, "fixed.iq")
	require.NoError(t, g.WriteFixed(context.Background(), 59.5, 18.25, 60.0, out))

	assert.Equal(t, cfg.ToolPath, runner.name)
	assert.Equal(t, []string{
		"-e", cfg.EphemerisPath,
		"-o", out,
		"-s", "2600000",
		"-b", "8",
		"-l", "59.5,18.25,0",
		"-d", "60",
	}, runner.args)
}

func TestGpsSdrSimWriteRouteTrajectory(t *testing.T) {
	cfg, dir := sdrFixture(t)
	runner := &captureRunner{}
	g := NewGpsSdrSim(cfg)
	g.runner = runner

	plan := &motion.Plan{Points: []motion.Point{
		{T: 0, Lat: 59.5, Lon: 18.25},
		{T: 1.5, Lat: 59.501, Lon: 18.25},
	}}
	out := filepath.Join(dir, "route.iq")
	require.NoError(t, g.WriteRoute(context.Background(), plan, out))

	want := "0.000,59.50000000,18.25000000,0.000\n" +
		"1.500,59.50100000,18.25000000,0.000\n"
	assert.Equal(t, want, runner.traj)

	// The tool reads the trajectory through -x, then the file is removed.
	trajIdx := -1
	for i, a := range runner.args {
		if a == "-x" {
			trajIdx = i + 1
		}
	}
	require.Greater(t, trajIdx, 0)
	_, err := os.Stat(runner.args[trajIdx])
	assert.True(t, os.IsNotExist(err))
}

func TestGpsSdrSimStartTimePinsScenario(t *testing.T) {
	cfg, dir := sdrFixture(t)
	cfg.StartTime = "2024/01/15,00:00:00"
	cfg.ExtraArgs = []string{"-v"}
	runner := &captureRunner{}
	g := NewGpsSdrSim(cfg)
	g.runner = runner

	require.NoError(t, g.WriteFixed(context.Background(), 0, 0, 10, filepath.Join(dir, "f.iq")))

	joined := strings.Join(runner.args, " ")
	assert.Contains(t, joined, "-t 2024/01/15,00:00:00")
	assert.Contains(t, joined, "-T 2024/01/15,00:00:00")
	assert.Equal(t, "-v", runner.args[len(runner.args)-1])
}

func TestGpsSdrSimRejectsBadBits(t *testing.T) {
	cfg, dir := sdrFixture(t)
	cfg.IQBits = 4
	g := NewGpsSdrSim(cfg)
	g.runner = &captureRunner{}

	err := g.WriteFixed(context.Background(), 0, 0, 10, filepath.Join(dir, "f.iq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iq bits must be 1, 8, or 16")
}

func TestGpsSdrSimMissingEphemeris(t *testing.T) {
	cfg, dir := sdrFixture(t)
	cfg.EphemerisPath = filepath.Join(dir, "missing.22n")
	g := NewGpsSdrSim(cfg)
	g.runner = &captureRunner{}

	err := g.WriteFixed(context.Background(), 0, 0, 10, filepath.Join(dir, "f.iq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ephemeris file")
}

func TestGpsSdrSimToolFailure(t *testing.T) {
	cfg, dir := sdrFixture(t)
	runner := &captureRunner{stderr: "no ephemeris data", err: errors.New("exit status 1")}
	g := NewGpsSdrSim(cfg)
	g.runner = runner

	err := g.WriteFixed(context.Background(), 0, 0, 10, filepath.Join(dir, "f.iq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gps-sdr-sim failed")
	assert.Contains(t, err.Error(), "no ephemeris data")
}

func TestGpsSdrSimEmptyPlan(t *testing.T) {
	cfg, dir := sdrFixture(t)
	g := NewGpsSdrSim(cfg)
	g.runner = &captureRunner{}

	err := g.WriteRoute(context.Background(), &motion.Plan{}, filepath.Join(dir, "r.iq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty motion plan")
}

func TestGpsSdrSimRejectsZeroDuration(t *testing.T) {
	cfg, dir := sdrFixture(t)
	g := NewGpsSdrSim(cfg)
	g.runner = &captureRunner{}

	err := g.WriteFixed(context.Background(), 0, 0, 0, filepath.Join(dir, "f.iq"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration must be positive")
}
