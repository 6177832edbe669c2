// Package testutil provides shared helpers for tests across the module.
package testutil

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/maximewewer/sntp-client/internal/wire"
)

// BuildServerResponse builds a well-formed server-mode SNTP datagram with the
// given stratum and transmit timestamp.
func BuildServerResponse(tb testing.TB, stratum wire.Stratum, xmit wire.Timestamp) []byte {
	tb.Helper()

	pkt := wire.Packet{
		Leap:         wire.LeapNoWarning,
		Version:      4,
		Mode:         wire.ModeServer,
		Stratum:      stratum,
		TransmitTime: xmit,
	}
	buf := make([]byte, wire.PacketSize)
	if err := pkt.Emit(buf); err != nil {
		tb.Fatalf("Failed to emit packet: %v", err)
	}
	return buf
}

// BuildKissOfDeath builds a kiss-of-death datagram. The transmit timestamp is
// populated so tests can verify it gets ignored.
func BuildKissOfDeath(tb testing.TB) []byte {
	return BuildServerResponse(tb, wire.StratumKissOfDeath, wire.Timestamp{Seconds: 100})
}

// AssertMetricValue validates a Prometheus metric value
func AssertMetricValue(t *testing.T, registry *prometheus.Registry, metricName string, expected float64) {
	t.Helper()

	metrics, err := registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != metricName {
			continue
		}

		for _, m := range mf.GetMetric() {
			var value float64
			switch mf.GetType() {
			case dto.MetricType_GAUGE:
				value = m.GetGauge().GetValue()
			case dto.MetricType_COUNTER:
				value = m.GetCounter().GetValue()
			default:
				t.Fatalf("Unsupported metric type: %v", mf.GetType())
			}

			if value != expected {
				t.Errorf("Metric %s: expected %f, got %f", metricName, expected, value)
			}
			return
		}
	}

	t.Errorf("Metric %s not found", metricName)
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// CreateTestRegistry creates a new Prometheus registry for testing
func CreateTestRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
