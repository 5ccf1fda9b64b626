package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecast/navrig/internal/settings"
	"github.com/routecast/navrig/internal/sim"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navrig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "navrig.db", cfg.DatabasePath)
	assert.Equal(t, "output", cfg.ArtifactsDir)
	assert.Equal(t, settings.Defaults(), cfg.Settings)
	assert.Equal(t, sim.DefaultManagerConfig(), cfg.Playback.ManagerConfig())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
playback:
  demo_speed_multiplier: 25
profile:
  cruise_speed_kmh: 60
settings:
  controller:
    port: /dev/ttyACM0
    parity: odd
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 25.0, cfg.Playback.DemoSpeedMultiplier)
	assert.Equal(t, 60.0, cfg.Profile.CruiseSpeedKmh)
	assert.Equal(t, "/dev/ttyACM0", cfg.Settings.Controller.Port)

	// Everything the file does not mention keeps its default.
	assert.Equal(t, "navrig.db", cfg.DatabasePath)
	assert.Equal(t, 0.1, cfg.Playback.DemoDtS)
	assert.Equal(t, 2.0, cfg.Profile.AccelMps2)
	assert.Equal(t, 8, cfg.Settings.Generator.IQBits)
	assert.Equal(t, 115200, cfg.Settings.Controller.BaudRate)
}

func TestLoadCanonicalizesSettingsSeed(t *testing.T) {
	path := writeConfig(t, `
settings:
  controller:
    port: /dev/ttyACM0
    parity: odd
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "O", cfg.Settings.Controller.Parity)
}

func TestLoadUnparseable(t *testing.T) {
	path := writeConfig(t, "listen_addr: [broken")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty listen addr", `listen_addr: ""`, "listen_addr"},
		{"empty database path", `database_path: ""`, "database_path"},
		{
			"zero demo multiplier",
			"playback:\n  demo_speed_multiplier: 0\n",
			"demo_speed_multiplier",
		},
		{
			"negative demo dt",
			"playback:\n  demo_dt_s: -0.1\n",
			"demo_dt_s",
		},
		{
			"zero live dt",
			"playback:\n  live_dt_s: 0\n",
			"live_dt_s",
		},
		{
			"negative fixed duration",
			"playback:\n  live_fixed_duration_s: -1\n",
			"live_fixed_duration_s",
		},
		{
			"invalid settings seed",
			"settings:\n  iq_generator:\n    iq_bits: 4\n",
			"iq_bits must be 1, 8, or 16",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
