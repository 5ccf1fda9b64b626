package devices

import "context"

// NullTransmitter satisfies the transmitter port with no-ops, used when RF
// output is disabled for a run.
type NullTransmitter struct{}

func (NullTransmitter) PlaySignal(ctx context.Context, path string) error { return nil }

func (NullTransmitter) Stop(ctx context.Context) error { return nil }

// NullActuator satisfies the actuator port with no-ops, used when the
// speed/bearing rig is disabled or absent.
type NullActuator struct{}

func (NullActuator) SetSpeedKmh(kmh float64) error { return nil }

func (NullActuator) SetBearingDeg(deg float64) error { return nil }

func (NullActuator) Stop() error { return nil }
