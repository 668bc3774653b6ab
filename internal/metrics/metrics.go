// Package metrics holds the twin's Prometheus instrumentation: package-level
// collectors registered once via prometheus.MustRegister and exercised from
// the driver and gateway hot paths, in the style of
// ratelimiter/telemetry/churn/prom_counters.go.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TickDuration observes how long one simulation-driver tick (read,
	// step, encode, write) takes to run.
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "twin_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation driver tick",
		Buckets: prometheus.DefBuckets,
	})

	// TicksTotal counts completed simulation ticks.
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twin_ticks_total",
		Help: "Total number of simulation driver ticks completed",
	})

	// GatewayRequests counts handled Modbus requests, rejected ones
	// included, by object kind
	// ("coils", "holdings").
	GatewayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_gateway_requests_total",
		Help: "Total Modbus requests handled, by register object kind",
	}, []string{"kind"})

	// GatewayErrors counts rejected Modbus requests (out-of-range
	// addresses) by object kind.
	GatewayErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twin_gateway_errors_total",
		Help: "Total Modbus requests rejected, by register object kind",
	}, []string{"kind"})

	// DriverReadFailures counts ticks where the driver fell back to its
	// last-known-good controls because the register bank read failed.
	DriverReadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twin_driver_read_failures_total",
		Help: "Total ticks that fell back to last-known controls after a bank read error",
	})

	// DriverWriteFailures counts ticks where the measurement write to the
	// register bank failed.
	DriverWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twin_driver_write_failures_total",
		Help: "Total ticks whose measurement write to the register bank failed",
	})

	// MembraneHealth reports the current membrane health percentage when
	// the damage-model variant is enabled.
	MembraneHealth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "twin_membrane_health_percent",
		Help: "Current RO membrane health, 0-100 (damage-model variant only)",
	})
)

func init() {
	prometheus.MustRegister(
		TickDuration,
		TicksTotal,
		GatewayRequests,
		GatewayErrors,
		DriverReadFailures,
		DriverWriteFailures,
		MembraneHealth,
	)
}
