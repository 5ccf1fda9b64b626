package devices

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"
)

// SerialPorter is the surface of an open serial connection used by the
// actuator. The rig only ever receives commands, so reads are not part of
// the contract.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// PortOptions describes the serial connection parameters for the
// speed/bearing rig. The fields mirror the persisted device settings so that
// they can be passed through from the API layer without translation.
type PortOptions struct {
	BaudRate int    `json:"baud_rate" yaml:"baud_rate"`
	DataBits int    `json:"data_bits" yaml:"data_bits"`
	StopBits int    `json:"stop_bits" yaml:"stop_bits"`
	Parity   string `json:"parity" yaml:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}

	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the options into the serial.Mode structure required by
// go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	// serial.StopBits values are not the literal bit counts, so map them
	// explicitly rather than casting.
	switch opts.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", opts.Parity)
	}

	return mode, nil
}

// OpenSerialPort opens the serial device at path with the given options.
func OpenSerialPort(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	return port, nil
}

// MemorySerialPort is an in-memory SerialPorter for tests and diagnostics.
type MemorySerialPort struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	writeErr error
	closed   bool
}

// NewMemorySerialPort creates an empty in-memory port.
func NewMemorySerialPort() *MemorySerialPort {
	return &MemorySerialPort{}
}

// Write captures the data, or returns any armed error.
func (p *MemorySerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.writeErr != nil {
		err := p.writeErr
		p.writeErr = nil
		return 0, err
	}
	return p.buf.Write(b)
}

// Close marks the port as closed. Subsequent writes fail.
func (p *MemorySerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MemorySerialPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// FailNextWrite arms a one-shot error returned by the next Write call.
func (p *MemorySerialPort) FailNextWrite(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.writeErr = err
}

// Lines returns the newline-terminated commands written so far.
func (p *MemorySerialPort) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := strings.TrimSuffix(p.buf.String(), "\n")
	if data == "" {
		return nil
	}
	return strings.Split(data, "\n")
}
