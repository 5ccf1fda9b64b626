package devices

import (
	"context"
	"sync"
	"time"

	"github.com/routecast/navrig/internal/fsutil"
	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/timeutil"
)

// dryRunBytesPerSample assumes 8-bit interleaved I/Q pairs when estimating
// artifact airtime.
const dryRunBytesPerSample = 2

// DryRunTransmitter simulates IQ replay without touching the radio: it sleeps
// for the artifact's estimated airtime, derived from the file size and sample
// rate.
type DryRunTransmitter struct {
	sampleRateHz   int
	bytesPerSample int
	clock          timeutil.Clock
	fs             fsutil.FileSystem
}

// NewDryRunTransmitter builds a dry-run transmitter. A nil clock uses the
// system clock, a nil fs the OS filesystem.
func NewDryRunTransmitter(sampleRateHz, bytesPerSample int, clock timeutil.Clock, fs fsutil.FileSystem) *DryRunTransmitter {
	if sampleRateHz <= 0 {
		sampleRateHz = 2600000
	}
	if bytesPerSample < 1 {
		bytesPerSample = 1
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &DryRunTransmitter{
		sampleRateHz:   sampleRateHz,
		bytesPerSample: bytesPerSample,
		clock:          clock,
		fs:             fs,
	}
}

// PlaySignal sleeps for the estimated airtime of the artifact at path.
func (d *DryRunTransmitter) PlaySignal(ctx context.Context, path string) error {
	duration := d.estimateAirtime(path)
	monitoring.Logf("DryRun GPS play: %s (%.2fs)", path, duration.Seconds())
	if duration <= 0 {
		return nil
	}

	timer := d.clock.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// Stop is a no-op; cancellation interrupts an in-progress sleep.
func (d *DryRunTransmitter) Stop(ctx context.Context) error {
	return nil
}

func (d *DryRunTransmitter) estimateAirtime(path string) time.Duration {
	info, err := d.fs.Stat(path)
	if err != nil {
		return 0
	}
	denom := float64(d.sampleRateHz * d.bytesPerSample)
	if denom <= 0 {
		return 0
	}
	return time.Duration(float64(info.Size()) / denom * float64(time.Second))
}

// DryRunActuator records the commanded values without any device I/O.
type DryRunActuator struct {
	mu         sync.Mutex
	speedKmh   float64
	bearingDeg float64
}

// NewDryRunActuator builds an actuator at rest.
func NewDryRunActuator() *DryRunActuator {
	return &DryRunActuator{}
}

// SetSpeedKmh records the commanded speed.
func (a *DryRunActuator) SetSpeedKmh(kmh float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.speedKmh = kmh
	return nil
}

// SetBearingDeg records the commanded bearing.
func (a *DryRunActuator) SetBearingDeg(deg float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bearingDeg = deg
	return nil
}

// Stop rests the speed axis. The bearing holds its last value, like the real
// rig.
func (a *DryRunActuator) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.speedKmh = 0
	return nil
}

// Snapshot returns the last commanded speed and bearing.
func (a *DryRunActuator) Snapshot() (speedKmh, bearingDeg float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.speedKmh, a.bearingDeg
}
