package devices

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, 115200, opts.BaudRate)
	assert.Equal(t, 8, opts.DataBits)
	assert.Equal(t, 1, opts.StopBits)
	assert.Equal(t, "N", opts.Parity)
}

func TestPortOptionsNormalizeParityAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "N"},
		{"none", "N"},
		{"EVEN", "E"},
		{"e", "E"},
		{"odd", "O"},
		{" o ", "O"},
	}

	for _, tc := range tests {
		opts, err := PortOptions{Parity: tc.in}.Normalize()
		require.NoError(t, err, "parity %q", tc.in)
		assert.Equal(t, tc.want, opts.Parity, "parity %q", tc.in)
	}
}

func TestPortOptionsNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits too low", PortOptions{DataBits: 4}},
		{"data bits too high", PortOptions{DataBits: 9}},
		{"three stop bits", PortOptions{StopBits: 3}},
		{"unknown parity", PortOptions{Parity: "M"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestPortOptionsSerialModeStopBits(t *testing.T) {
	mode, err := PortOptions{StopBits: 1}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)

	mode, err = PortOptions{StopBits: 2}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)

	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)
}

func TestMemorySerialPortCapturesLines(t *testing.T) {
	port := NewMemorySerialPort()

	_, err := io.WriteString(port, "speed_set 10.00\n")
	require.NoError(t, err)
	_, err = io.WriteString(port, "angle_set 45.00\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"speed_set 10.00", "angle_set 45.00"}, port.Lines())
}

func TestMemorySerialPortClosedWrites(t *testing.T) {
	port := NewMemorySerialPort()
	require.NoError(t, port.Close())

	_, err := io.WriteString(port, "speed_set 10.00\n")
	assert.Error(t, err)
	assert.True(t, port.Closed())
}

func TestMemorySerialPortFailNextWrite(t *testing.T) {
	port := NewMemorySerialPort()
	boom := errors.New("boom")
	port.FailNextWrite(boom)

	_, err := io.WriteString(port, "speed_set 10.00\n")
	assert.ErrorIs(t, err, boom)

	_, err = io.WriteString(port, "speed_set 11.00\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"speed_set 11.00"}, port.Lines())
}
