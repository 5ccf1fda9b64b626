package devices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/routecast/navrig/internal/monitoring"
)

// HackrfConfig holds the hackrf_transfer invocation parameters.
type HackrfConfig struct {
	// Command is the path to the hackrf_transfer executable.
	Command string
	// FrequencyHz is the transmit carrier frequency.
	FrequencyHz int
	// SampleRateHz must match the rate the IQ artifact was generated at.
	SampleRateHz int
	// TxvgaGain is the TX VGA (IF) gain, 0-47 dB.
	TxvgaGain int
	// AmpEnabled switches on the front-end RF amplifier.
	AmpEnabled bool
	// StopGrace is how long Stop waits after SIGTERM before killing the
	// transfer process.
	StopGrace time.Duration
}

// DefaultHackrfConfig returns the stock GPS L1 replay parameters.
func DefaultHackrfConfig() HackrfConfig {
	return HackrfConfig{
		Command:      "hackrf_transfer",
		FrequencyHz:  1575420000,
		SampleRateHz: 2600000,
		TxvgaGain:    20,
		StopGrace:    2 * time.Second,
	}
}

// HackrfTransmitter replays IQ artifacts over the air by shelling out to
// hackrf_transfer. At most one transfer runs at a time.
type HackrfTransmitter struct {
	cfg HackrfConfig

	mu       sync.Mutex
	cmd      *exec.Cmd
	waitDone chan struct{}
	stopped  bool
}

// NewHackrfTransmitter builds a transmitter. Zero config fields fall back to
// the defaults; a zero TxvgaGain is kept as a valid gain setting.
func NewHackrfTransmitter(cfg HackrfConfig) *HackrfTransmitter {
	def := DefaultHackrfConfig()
	if cfg.Command == "" {
		cfg.Command = def.Command
	}
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = def.FrequencyHz
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = def.StopGrace
	}
	return &HackrfTransmitter{cfg: cfg}
}

// PlaySignal replays the IQ file at path and returns once the transfer
// completes. A transfer wound down by Stop is not a failure; cancellation is
// reported as the context error.
func (h *HackrfTransmitter) PlaySignal(ctx context.Context, path string) error {
	args := []string{
		"-t", path,
		"-f", strconv.Itoa(h.cfg.FrequencyHz),
		"-s", strconv.Itoa(h.cfg.SampleRateHz),
		"-x", strconv.Itoa(h.cfg.TxvgaGain),
	}
	if h.cfg.AmpEnabled {
		args = append(args, "-a", "1")
	}

	var stderr bytes.Buffer
	cmd := exec.Command(h.cfg.Command, args...)
	cmd.Stderr = &stderr

	h.mu.Lock()
	if h.cmd != nil {
		h.mu.Unlock()
		return errors.New("HackRF playback already running")
	}
	monitoring.Logf("HackRF play: %s %s", h.cfg.Command, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		h.mu.Unlock()
		return fmt.Errorf("start %s: %w", h.cfg.Command, err)
	}
	done := make(chan struct{})
	h.cmd = cmd
	h.waitDone = done
	h.stopped = false
	h.mu.Unlock()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		h.terminate(cmd, done)
		<-waitErr
		h.clear(cmd)
		return ctx.Err()
	case err := <-waitErr:
		h.mu.Lock()
		stopped := h.stopped
		h.mu.Unlock()
		h.clear(cmd)
		if err == nil {
			return nil
		}
		if stopped || ctx.Err() != nil {
			return ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("HackRF playback failed: %s", detail)
	}
}

// Stop terminates the active transfer and waits for it to exit. Stop without
// a running transfer is a no-op.
func (h *HackrfTransmitter) Stop(ctx context.Context) error {
	h.mu.Lock()
	cmd, done := h.cmd, h.waitDone
	if cmd == nil {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	timer := time.NewTimer(h.cfg.StopGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
	}
	return nil
}

// terminate asks the transfer to exit and escalates to SIGKILL after the
// grace period.
func (h *HackrfTransmitter) terminate(cmd *exec.Cmd, done <-chan struct{}) {
	_ = cmd.Process.Signal(syscall.SIGTERM)

	timer := time.NewTimer(h.cfg.StopGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		_ = cmd.Process.Kill()
		<-done
	}
}

func (h *HackrfTransmitter) clear(cmd *exec.Cmd) {
	h.mu.Lock()
	if h.cmd == cmd {
		h.cmd = nil
		h.waitDone = nil
	}
	h.mu.Unlock()
}
