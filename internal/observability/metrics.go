// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into the rig. The Collector implements the hub's metrics hook, and
// RunRecorder decorates run persistence with lifecycle counters.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the rig's Prometheus metrics and provides the hooks
// that feed them.
type Collector struct {
	gatherer prometheus.Gatherer

	RunsStarted  *prometheus.CounterVec
	RunsFinished *prometheus.CounterVec
	RunDuration  prometheus.Histogram

	HubClients    prometheus.Gauge
	HubPublishes  *prometheus.CounterVec
	HubDeliveries *prometheus.CounterVec
	HubDrops      prometheus.Counter
}

// NewCollector registers the rig's metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	started := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_runs_started_total",
		Help: "Simulation runs accepted, labeled by mode.",
	}, []string{"mode"})
	started, err := registerCounterVec(reg, started, "sim_runs_started_total")
	if err != nil {
		return nil, err
	}

	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_runs_finished_total",
		Help: "Simulation runs finished, labeled by recorded outcome.",
	}, []string{"outcome"})
	finished, err = registerCounterVec(reg, finished, "sim_runs_finished_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_run_duration_seconds",
		Help:    "Wall-clock duration of finished simulation runs.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}), "sim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hub_connected_clients",
		Help: "Current number of connected websocket clients.",
	}), "hub_connected_clients")
	if err != nil {
		return nil, err
	}

	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_publishes_total",
		Help: "Payloads published to the hub, labeled by topic.",
	}, []string{"topic"})
	publishes, err = registerCounterVec(reg, publishes, "hub_publishes_total")
	if err != nil {
		return nil, err
	}

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_deliveries_total",
		Help: "Per-client deliveries of published payloads, labeled by topic.",
	}, []string{"topic"})
	deliveries, err = registerCounterVec(reg, deliveries, "hub_deliveries_total")
	if err != nil {
		return nil, err
	}

	drops, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hub_clients_dropped_total",
		Help: "Clients removed from the hub after a failed delivery.",
	}), "hub_clients_dropped_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		RunsStarted:   started,
		RunsFinished:  finished,
		RunDuration:   duration,
		HubClients:    clients,
		HubPublishes:  publishes,
		HubDeliveries: deliveries,
		HubDrops:      drops,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordPublish satisfies the hub metrics hook.
func (c *Collector) RecordPublish(topic string, delivered int) {
	if c == nil {
		return
	}
	if c.HubPublishes != nil {
		c.HubPublishes.WithLabelValues(topic).Inc()
	}
	if c.HubDeliveries != nil {
		c.HubDeliveries.WithLabelValues(topic).Add(float64(delivered))
	}
}

// RecordDrop satisfies the hub metrics hook.
func (c *Collector) RecordDrop() {
	if c == nil || c.HubDrops == nil {
		return
	}
	c.HubDrops.Inc()
}

// SetHubClients tracks the connected client count. The websocket handler
// drives this on connect and disconnect.
func (c *Collector) SetHubClients(n int) {
	if c == nil || c.HubClients == nil {
		return
	}
	c.HubClients.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
