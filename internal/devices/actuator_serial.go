package devices

import (
	"fmt"
	"io"
	"sync"

	"github.com/routecast/navrig/internal/monitoring"
)

// SerialActuator drives the speed/bearing rig over a serial line. The rig
// speaks a plain text protocol, one command per line: "speed_set 12.50",
// "angle_set 90.00", "speed_stop", "angle_stop".
type SerialActuator struct {
	mu   sync.Mutex
	port SerialPorter
}

// NewSerialActuator wraps an already opened port.
func NewSerialActuator(port SerialPorter) *SerialActuator {
	return &SerialActuator{port: port}
}

// OpenSerialActuator opens the serial device at path and returns an actuator
// connected to it.
func OpenSerialActuator(path string, opts PortOptions) (*SerialActuator, error) {
	port, err := OpenSerialPort(path, opts)
	if err != nil {
		return nil, err
	}

	monitoring.Logf("Serial actuator connected on %s", path)
	return NewSerialActuator(port), nil
}

// SetSpeedKmh commands the rig to the given speed.
func (a *SerialActuator) SetSpeedKmh(kmh float64) error {
	return a.send(fmt.Sprintf("speed_set %.2f", kmh))
}

// SetBearingDeg commands the rig to the given bearing.
func (a *SerialActuator) SetBearingDeg(deg float64) error {
	return a.send(fmt.Sprintf("angle_set %.2f", deg))
}

// Stop halts both axes.
func (a *SerialActuator) Stop() error {
	if err := a.send("speed_stop"); err != nil {
		return err
	}
	return a.send("angle_stop")
}

// Close releases the underlying port.
func (a *SerialActuator) Close() error {
	return a.port.Close()
}

func (a *SerialActuator) send(command string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := io.WriteString(a.port, command+"\n"); err != nil {
		return fmt.Errorf("serial write %q: %w", command, err)
	}
	return nil
}
