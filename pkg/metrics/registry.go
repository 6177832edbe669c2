package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages Prometheus metric registration
type Registry struct {
	registry      *prometheus.Registry
	clientMetrics *ClientMetrics
}

// NewRegistry creates a new metrics registry with SNTP client metrics
// Uses default namespace "sntp" and empty subsystem
func NewRegistry() *Registry {
	return NewRegistryWithConfig("sntp", "")
}

// NewRegistryWithConfig creates a new metrics registry with custom namespace and subsystem
func NewRegistryWithConfig(namespace, subsystem string) *Registry {
	return &Registry{
		registry:      prometheus.NewRegistry(),
		clientMetrics: NewClientMetricsWithConfig(namespace, subsystem),
	}
}

// Register registers all SNTP client metrics
func (r *Registry) Register() error {
	// Register the client metrics collector
	if err := r.registry.Register(r.clientMetrics); err != nil {
		return err
	}

	// Register Go runtime metrics
	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return nil
}

// GetRegistry returns the underlying Prometheus registry
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// GetMetrics returns the client metrics instance
func (r *Registry) GetMetrics() *ClientMetrics {
	return r.clientMetrics
}

// MustRegister registers all metrics and panics on error
func (r *Registry) MustRegister() {
	if err := r.Register(); err != nil {
		panic(err)
	}
}
