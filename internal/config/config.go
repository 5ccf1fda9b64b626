// Package config loads the process-level configuration file. It carries
// deployment state an operator sets once: listen address, storage paths,
// playback pacing, the kinematic profile, and the settings document a
// fresh database is seeded with. Mutable device settings live in the
// database and are edited over the API; this file only provides their
// first-boot values.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/settings"
	"github.com/routecast/navrig/internal/sim"
)

// Config is the top-level application configuration.
type Config struct {
	ListenAddr    string `yaml:"listen_addr"`
	DatabasePath  string `yaml:"database_path"`
	MigrationsDir string `yaml:"migrations_dir"`
	ArtifactsDir  string `yaml:"artifacts_dir"`

	Playback PlaybackConfig    `yaml:"playback"`
	Profile  motion.Profile    `yaml:"profile"`
	Settings settings.Document `yaml:"settings"`
}

// PlaybackConfig holds the run defaults applied when a request leaves a
// value unset.
type PlaybackConfig struct {
	DemoSpeedMultiplier float64 `yaml:"demo_speed_multiplier"`
	DemoDtS             float64 `yaml:"demo_dt_s"`
	LiveDtS             float64 `yaml:"live_dt_s"`
	LiveFixedDurationS  float64 `yaml:"live_fixed_duration_s"`
	DryRunDefault       bool    `yaml:"dry_run_default"`
}

// ManagerConfig converts the playback section into run manager defaults.
func (p PlaybackConfig) ManagerConfig() sim.ManagerConfig {
	return sim.ManagerConfig{
		DemoSpeedMultiplierDefault: p.DemoSpeedMultiplier,
		DemoDtS:                    p.DemoDtS,
		LiveDtS:                    p.LiveDtS,
		LiveFixedDurationS:         p.LiveFixedDurationS,
		DryRunDefault:              p.DryRunDefault,
	}
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	mc := sim.DefaultManagerConfig()
	return &Config{
		ListenAddr:    ":8080",
		DatabasePath:  "navrig.db",
		MigrationsDir: "internal/db/migrations",
		ArtifactsDir:  "output",
		Playback: PlaybackConfig{
			DemoSpeedMultiplier: mc.DemoSpeedMultiplierDefault,
			DemoDtS:             mc.DemoDtS,
			LiveDtS:             mc.LiveDtS,
			LiveFixedDurationS:  mc.LiveFixedDurationS,
			DryRunDefault:       mc.DryRunDefault,
		},
		Profile:  motion.DefaultProfile(),
		Settings: settings.Defaults(),
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are
// used. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects values the rest of the process would only trip over
// later, and canonicalizes the settings seed.
func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr must not be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.Playback.DemoSpeedMultiplier <= 0 {
		return errors.New("playback.demo_speed_multiplier must be > 0")
	}
	if c.Playback.DemoDtS <= 0 {
		return errors.New("playback.demo_dt_s must be > 0")
	}
	if c.Playback.LiveDtS <= 0 {
		return errors.New("playback.live_dt_s must be > 0")
	}
	if c.Playback.LiveFixedDurationS < 0 {
		return errors.New("playback.live_fixed_duration_s must be >= 0")
	}

	seed, err := c.Settings.Normalize()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	c.Settings = seed
	return nil
}
