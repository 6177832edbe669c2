package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics encapsulates all SNTP client metrics
type ClientMetrics struct {
	// Protocol counters
	RequestsTotal     prometheus.Counter
	TimestampsTotal   prometheus.Counter
	MalformedTotal    prometheus.Counter
	RejectedModeTotal prometheus.Counter
	KissOfDeathTotal  prometheus.Counter

	// Transport counters
	TransportErrorsTotal prometheus.Counter

	// State gauges
	LastTimestampSeconds prometheus.Gauge
	NextRequestSeconds   prometheus.Gauge
}

// NewClientMetrics creates all client metrics with the default namespace
func NewClientMetrics() *ClientMetrics {
	return NewClientMetricsWithConfig("sntp", "")
}

// NewClientMetricsWithConfig creates all client metrics with a custom
// namespace and subsystem
func NewClientMetricsWithConfig(namespace, subsystem string) *ClientMetrics {
	return &ClientMetrics{
		RequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Number of SNTP requests sent to the server",
			},
		),
		TimestampsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "timestamps_total",
				Help:      "Number of valid server responses that produced a timestamp",
			},
		),
		MalformedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "malformed_packets_total",
				Help:      "Number of undersized or unparseable datagrams discarded",
			},
		),
		RejectedModeTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rejected_mode_total",
				Help:      "Number of well-formed packets discarded for a non-server protocol mode",
			},
		),
		KissOfDeathTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "kiss_of_death_total",
				Help:      "Number of kiss-of-death packets received from the server",
			},
		),
		TransportErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transport_errors_total",
				Help:      "Number of poll cycles aborted by a transport fault",
			},
		),
		LastTimestampSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_timestamp_seconds",
				Help:      "Last Unix timestamp obtained from the server",
			},
		),
		NextRequestSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "next_request_seconds",
				Help:      "Seconds until the next scheduled request (negative when overdue)",
			},
		),
	}
}

// getAllMetrics returns every metric for registration and collection
func (m *ClientMetrics) getAllMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsTotal,
		m.TimestampsTotal,
		m.MalformedTotal,
		m.RejectedModeTotal,
		m.KissOfDeathTotal,
		m.TransportErrorsTotal,
		m.LastTimestampSeconds,
		m.NextRequestSeconds,
	}
}

// Describe implements prometheus.Collector interface
func (m *ClientMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range m.getAllMetrics() {
		metric.Describe(ch)
	}
}

// Collect implements prometheus.Collector interface
func (m *ClientMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, metric := range m.getAllMetrics() {
		metric.Collect(ch)
	}
}
