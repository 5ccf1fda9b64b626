package sim

import "errors"

var (
	// ErrAlreadyRunning is returned by Manager.Run while a previous run is
	// still active.
	ErrAlreadyRunning = errors.New("simulation already running")

	// ErrNoSubscribers is reported by an EventSink when a telemetry sample
	// reached zero connected clients. The manager treats it as a request to
	// wind the run down rather than a crash.
	ErrNoSubscribers = errors.New("no subscribers connected")
)
