package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tternquist/conduit-proxy/internal/config"
)

var (
	registry *prometheus.Registry
	initOnce sync.Once
)

// Prometheus metrics for the conduit proxy
var (
	ConnectionsAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_connections_accepted_total",
		Help: "Total number of connections accepted on the public listener",
	})

	ConnectionsClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_connections_closed_total",
		Help: "Total number of forwarded connections that have finished",
	})

	ConnectFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_connect_failures_total",
		Help: "Total number of failed connects to the forward target",
	})

	BytesForwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_bytes_forwarded_total",
		Help: "Total number of bytes relayed in either direction",
	})

	EventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_events_dropped_total",
		Help: "Total number of events dropped due to a full event buffer",
	})

	FlushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_metrics_flushes_total",
		Help: "Total number of event buffer flushes",
	})

	ConfigLoadErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proxy_config_load_errors_total",
		Help: "Total number of rejected configuration loads, by error kind",
	}, []string{"kind"})

	// Gauges set from the loaded configuration
	EventBufferCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proxy_event_buffer_capacity",
		Help: "Configured capacity of the event buffer",
	})

	FlushIntervalSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proxy_metrics_flush_interval_seconds",
		Help: "Configured interval between event buffer flushes",
	})

	EventBufferUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proxy_event_buffer_used",
		Help: "Number of events waiting in the buffer",
	})
)

// Init registers all metrics with a new registry and returns the registry.
// Safe to call multiple times; only the first call registers.
func Init() *prometheus.Registry {
	initOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			ConnectionsAcceptedTotal,
			ConnectionsClosedTotal,
			ConnectFailuresTotal,
			BytesForwardedTotal,
			EventsDroppedTotal,
			FlushesTotal,
			ConfigLoadErrorsTotal,
			EventBufferCapacity,
			FlushIntervalSeconds,
			EventBufferUsed,
			prometheus.NewGoCollector(),
		)
	})
	return registry
}

// Registry returns the metrics registry (nil until Init is called)
func Registry() *prometheus.Registry {
	return registry
}

// ApplyConfig publishes the configured buffer capacity and flush interval.
func ApplyConfig(cfg config.Config) {
	EventBufferCapacity.Set(float64(cfg.EventBufferCapacity))
	FlushIntervalSeconds.Set(cfg.MetricsFlushInterval.Seconds())
}

// RecordConfigLoadError counts a rejected configuration load under its error kind.
func RecordConfigLoadError(err error) {
	if err == nil {
		return
	}
	ConfigLoadErrorsTotal.WithLabelValues(config.ErrorKind(err)).Inc()
}
