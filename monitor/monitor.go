// monitor/monitor.go
package monitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/kolortris/logger"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	RunningFields    prometheus.Gauge
	MessagesReceived prometheus.Counter
	CommandsApplied  *prometheus.CounterVec
	CommandsDropped  *prometheus.CounterVec
	GarbageLines     prometheus.Counter
	DecodeErrors     prometheus.Counter
	RoundLatency     prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected peers",
		}),
		RunningFields: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running_playfields",
			Help:      "Number of playfields with a running tick loop",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of framed messages received",
		}),
		CommandsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_applied_total",
			Help:      "Player commands applied, by command",
		}, []string{"command"}),
		CommandsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "Player commands dropped, by reason",
		}, []string{"reason"}),
		GarbageLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "garbage_lines_total",
			Help:      "Garbage lines queued on opponents",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Records that failed to decode",
		}),
		RoundLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_latency_seconds",
			Help:      "Time spent in one protocol round, excluding the sleep",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(
		m.OnlinePlayers,
		m.RunningFields,
		m.MessagesReceived,
		m.CommandsApplied,
		m.CommandsDropped,
		m.GarbageLines,
		m.DecodeErrors,
		m.RoundLatency,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
	server    *http.Server
}

// NewMonitor creates metrics on a private registry, so several monitors can
// live in one process.
func NewMonitor(namespace string) *Monitor {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Monitor{
		metrics:   NewMetrics(namespace, reg),
		registry:  reg,
		startTime: time.Now(),
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Seconds since the monitor was created",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	}))
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// StartServer serves /metrics on its own listener.
func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("metrics server: %v", err)
		}
	}()
}

func (m *Monitor) Stop() {
	if m.server != nil {
		m.server.Close()
	}
}

func (m *Monitor) IncOnlinePlayers() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) DecOnlinePlayers() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) SetRunningFields(count int) {
	m.metrics.RunningFields.Set(float64(count))
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
}

func (m *Monitor) IncCommand(command string) {
	m.metrics.CommandsApplied.WithLabelValues(command).Inc()
}

func (m *Monitor) IncDropped(reason string) {
	m.metrics.CommandsDropped.WithLabelValues(reason).Inc()
}

func (m *Monitor) AddGarbage(lines int) {
	if lines > 0 {
		m.metrics.GarbageLines.Add(float64(lines))
	}
}

func (m *Monitor) IncDecodeErrors() {
	m.metrics.DecodeErrors.Inc()
}

func (m *Monitor) ObserveRound(duration time.Duration) {
	m.metrics.RoundLatency.Observe(duration.Seconds())
}
