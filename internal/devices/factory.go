// Package devices provides the hardware adapters behind the simulation
// ports: the HackRF replay transmitter, the serial speed/bearing actuator,
// and their dry-run and disabled stand-ins. The Factory resolves per-run
// device flags into concrete adapters and assembles the demo and live
// runners.
package devices

import (
	"sync"

	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/sim"
	"github.com/routecast/navrig/internal/timeutil"
)

var (
	_ sim.Transmitter   = (*HackrfTransmitter)(nil)
	_ sim.Transmitter   = (*DryRunTransmitter)(nil)
	_ sim.Transmitter   = NullTransmitter{}
	_ sim.Actuator      = (*SerialActuator)(nil)
	_ sim.Actuator      = (*DryRunActuator)(nil)
	_ sim.Actuator      = NullActuator{}
	_ sim.RunnerFactory = (*Factory)(nil)
)

// Config carries the device parameters for a live run.
type Config struct {
	// SerialPort is the path of the speed/bearing rig's serial device.
	SerialPort string
	// SerialOptions are the connection parameters for that device.
	SerialOptions PortOptions
	// Hackrf holds the RF replay parameters.
	Hackrf HackrfConfig
}

// DefaultConfig returns the stock device parameters.
func DefaultConfig() Config {
	return Config{
		SerialPort: "/dev/ttyUSB0",
		Hackrf:     DefaultHackrfConfig(),
	}
}

// Factory builds demo and live runners, resolving device flags into concrete
// adapters. The config source is consulted before each live run so that
// settings changes apply without a restart.
type Factory struct {
	config   func() Config
	pipeline sim.Pipeline
	planner  *motion.Generator
	clock    timeutil.Clock

	mu     sync.Mutex
	serial *SerialActuator

	// openSerial is swapped out in tests.
	openSerial func(path string, opts PortOptions) (*SerialActuator, error)
}

// NewFactory wires a runner factory. A nil config source yields
// DefaultConfig, a nil planner paces the default kinematic profile, and a
// nil clock uses the system clock. pipeline produces the playback artifacts
// for live runs.
func NewFactory(config func() Config, pipeline sim.Pipeline, planner *motion.Generator, clock timeutil.Clock) *Factory {
	if config == nil {
		config = func() Config { return DefaultConfig() }
	}
	if planner == nil {
		planner = motion.NewGenerator(motion.DefaultProfile())
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Factory{
		config:     config,
		pipeline:   pipeline,
		planner:    planner,
		clock:      clock,
		openSerial: OpenSerialActuator,
	}
}

// Demo builds a runner that replays generated motion against the actuator
// and the event sink. No RF artifacts are produced; the actuator follows the
// same flag resolution as live runs.
func (f *Factory) Demo(events sim.EventSink, flags sim.DeviceFlags) (sim.DemoRunner, error) {
	actuator, err := f.resolveActuator(f.config(), flags)
	if err != nil {
		return nil, err
	}
	player := sim.NewPlayer(f.clock, events, actuator)
	return sim.NewDemoRunner(f.planner, player), nil
}

// Live builds the artifact-generating runner and the playback orchestrator
// retained for graceful stop. Device selection follows the flags: a disabled
// device becomes a no-op, dry-run devices simulate timing without I/O, and
// otherwise the real adapters are used.
func (f *Factory) Live(events sim.EventSink, flags sim.DeviceFlags) (sim.LiveRunner, sim.Stopper, error) {
	cfg := f.config()

	actuator, err := f.resolveActuator(cfg, flags)
	if err != nil {
		return nil, nil, err
	}
	gps := f.resolveTransmitter(cfg, flags)

	player := sim.NewPlayer(f.clock, events, actuator)
	playback := sim.NewOrchestrator(gps, player, events)
	return sim.NewLiveRunner(f.pipeline, playback), playback, nil
}

// Close releases any serial port held between runs.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.serial == nil {
		return nil
	}
	err := f.serial.Close()
	f.serial = nil
	return err
}

func (f *Factory) resolveTransmitter(cfg Config, flags sim.DeviceFlags) sim.Transmitter {
	switch {
	case !flags.EnableSignal:
		return NullTransmitter{}
	case flags.DryRun:
		return NewDryRunTransmitter(cfg.Hackrf.SampleRateHz, dryRunBytesPerSample, f.clock, nil)
	default:
		return NewHackrfTransmitter(cfg.Hackrf)
	}
}

func (f *Factory) resolveActuator(cfg Config, flags sim.DeviceFlags) (sim.Actuator, error) {
	switch {
	case !flags.EnableActuator:
		return NullActuator{}, nil
	case flags.DryRun:
		return NewDryRunActuator(), nil
	default:
		return f.leaseSerial(cfg)
	}
}

// leaseSerial opens the speed/bearing port for the coming run. Any port left
// over from a previous run is closed first so each run starts on a fresh
// handle. The port is held open across the run because the manager stops
// playback before cancelling it, and a close in between would turn a manual
// stop into a write failure.
func (f *Factory) leaseSerial(cfg Config) (*SerialActuator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.serial != nil {
		if err := f.serial.Close(); err != nil {
			monitoring.Logf("Error closing serial actuator: %v", err)
		}
		f.serial = nil
	}

	actuator, err := f.openSerial(cfg.SerialPort, cfg.SerialOptions)
	if err != nil {
		return nil, err
	}
	f.serial = actuator
	return actuator, nil
}
