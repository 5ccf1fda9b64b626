package sim

import (
	"context"
	"sync"
	"time"

	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/timeutil"
)

// recordingClock hands out real timers with a fixed fire delay while
// recording the durations the caller asked for. The default fire delay of
// zero makes paced playback complete instantly.
type recordingClock struct {
	timeutil.RealClock
	fireIn time.Duration

	mu     sync.Mutex
	delays []time.Duration
}

func (c *recordingClock) NewTimer(d time.Duration) timeutil.Timer {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	return timeutil.RealClock{}.NewTimer(c.fireIn)
}

func (c *recordingClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

type fakeActuator struct {
	mu       sync.Mutex
	speeds   []float64
	bearings []float64
	stops    int
	speedErr error
}

func (a *fakeActuator) SetSpeedKmh(v float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.speedErr != nil {
		return a.speedErr
	}
	a.speeds = append(a.speeds, v)
	return nil
}

func (a *fakeActuator) SetBearingDeg(v float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bearings = append(a.bearings, v)
	return nil
}

func (a *fakeActuator) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

func (a *fakeActuator) speedLog() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.speeds...)
}

func (a *fakeActuator) stopCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stops
}

// fakeSink records stages and samples. When errAt is positive, OnData returns
// err once that many samples have arrived.
type fakeSink struct {
	mu     sync.Mutex
	stages []string
	points []motion.Point
	errAt  int
	err    error
}

func (s *fakeSink) OnState(stage, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if detail != "" {
		stage = stage + ":" + detail
	}
	s.stages = append(s.stages, stage)
}

func (s *fakeSink) OnData(pt motion.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, pt)
	if s.errAt > 0 && len(s.points) >= s.errAt {
		return s.err
	}
	return nil
}

func (s *fakeSink) stageLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.stages...)
}

func (s *fakeSink) sawStage(stage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stages {
		if st == stage {
			return true
		}
	}
	return false
}

func (s *fakeSink) pointCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// fakeTransmitter records played paths. A path matching failPath returns
// playErr; a path matching blockPath parks until ctx is cancelled.
type fakeTransmitter struct {
	mu        sync.Mutex
	played    []string
	stops     int
	failPath  string
	playErr   error
	blockPath string
}

func (t *fakeTransmitter) PlaySignal(ctx context.Context, path string) error {
	t.mu.Lock()
	t.played = append(t.played, path)
	fail := path == t.failPath
	block := path == t.blockPath
	err := t.playErr
	t.mu.Unlock()
	if fail {
		return err
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (t *fakeTransmitter) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
	return nil
}

func (t *fakeTransmitter) playedLog() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.played...)
}

func (t *fakeTransmitter) stopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

type fakeStopper struct {
	mu    sync.Mutex
	stops int
}

func (s *fakeStopper) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeStopper) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type demoCall struct {
	routeID  string
	segRange route.SegmentRange
	dtS      float64
	mult     float64
}

// scriptedDemoRunner returns err immediately, or parks until ctx cancellation
// when block is set.
type scriptedDemoRunner struct {
	mu    sync.Mutex
	calls []demoCall
	err   error
	block bool
}

func (r *scriptedDemoRunner) Run(ctx context.Context, rt *route.Route, sr route.SegmentRange, dtS, mult float64) error {
	r.mu.Lock()
	r.calls = append(r.calls, demoCall{routeID: rt.ID, segRange: sr, dtS: dtS, mult: mult})
	block := r.block
	err := r.err
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (r *scriptedDemoRunner) callLog() []demoCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]demoCall(nil), r.calls...)
}

type liveCall struct {
	routeID  string
	segRange route.SegmentRange
	dtS      float64
	fixedS   float64
	mult     float64
}

type scriptedLiveRunner struct {
	mu    sync.Mutex
	calls []liveCall
	err   error
	block bool
}

func (r *scriptedLiveRunner) Run(ctx context.Context, rt *route.Route, sr route.SegmentRange, dtS, fixedS, mult float64) error {
	r.mu.Lock()
	r.calls = append(r.calls, liveCall{routeID: rt.ID, segRange: sr, dtS: dtS, fixedS: fixedS, mult: mult})
	block := r.block
	err := r.err
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (r *scriptedLiveRunner) callLog() []liveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]liveCall(nil), r.calls...)
}

type fakeFactory struct {
	mu      sync.Mutex
	demo    *scriptedDemoRunner
	live    *scriptedLiveRunner
	stopper *fakeStopper
	flags   []DeviceFlags
	demoErr error
	liveErr error
}

func (f *fakeFactory) Demo(events EventSink, flags DeviceFlags) (DemoRunner, error) {
	f.mu.Lock()
	f.flags = append(f.flags, flags)
	f.mu.Unlock()
	if f.demoErr != nil {
		return nil, f.demoErr
	}
	return f.demo, nil
}

func (f *fakeFactory) Live(events EventSink, flags DeviceFlags) (LiveRunner, Stopper, error) {
	f.mu.Lock()
	f.flags = append(f.flags, flags)
	f.mu.Unlock()
	if f.liveErr != nil {
		return nil, nil, f.liveErr
	}
	return f.live, f.stopper, nil
}

func (f *fakeFactory) flagLog() []DeviceFlags {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeviceFlags(nil), f.flags...)
}

type publishedMsg struct {
	payload interface{}
	topic   string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMsg
	clients  int
}

func (p *fakePublisher) Publish(payload interface{}, topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMsg{payload: payload, topic: topic})
	return p.clients
}

func (p *fakePublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clients
}

func (p *fakePublisher) messageLog() []publishedMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMsg(nil), p.messages...)
}

type runEnd struct {
	id      string
	outcome string
	detail  string
}

type fakeRecorder struct {
	mu        sync.Mutex
	starts    []RunStart
	ends      []runEnd
	insertErr error
}

func (r *fakeRecorder) InsertRun(ctx context.Context, start RunStart) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.starts = append(r.starts, start)
	return "run-1", nil
}

func (r *fakeRecorder) FinishRun(ctx context.Context, id, outcome, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, runEnd{id: id, outcome: outcome, detail: detail})
	return nil
}

func (r *fakeRecorder) startLog() []RunStart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RunStart(nil), r.starts...)
}

func (r *fakeRecorder) endLog() []runEnd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runEnd(nil), r.ends...)
}

func testRoute(id string) *route.Route {
	return &route.Route{
		ID: id,
		Waypoints: []route.Waypoint{
			{Lat: 0, Lon: 0},
			{Lat: 0.001, Lon: 0},
			{Lat: 0.002, Lon: 0},
		},
		Segments: []route.Segment{
			{From: 0, To: 1, Profile: route.Constant{SpeedKmh: 36}},
			{From: 1, To: 2, Profile: route.Constant{SpeedKmh: 36}},
		},
	}
}

func testPlan(ts ...float64) *motion.Plan {
	plan := &motion.Plan{}
	for i, t := range ts {
		plan.Points = append(plan.Points, motion.Point{
			T:          t,
			Lat:        float64(i) * 0.001,
			Lon:        float64(i) * 0.001,
			SpeedMps:   float64(i + 1),
			BearingDeg: float64(10 * i),
			SegmentIdx: 0,
		})
	}
	return plan
}
