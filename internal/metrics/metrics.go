// Package metrics holds the Prometheus collectors for the manufacturing flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the registry served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// Order and item results
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellflow",
			Name:      "orders_total",
			Help:      "Total number of processed sales orders by result",
		},
		[]string{"result"},
	)

	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellflow",
			Name:      "items_total",
			Help:      "Total number of processed order items by result",
		},
		[]string{"result"},
	)

	// Step metrics
	stepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellflow",
			Name:      "step_failures_total",
			Help:      "Total number of failed orchestration steps",
		},
		[]string{"step"},
	)

	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cellflow",
			Name:      "step_duration_seconds",
			Help:      "Duration of orchestration steps in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 10), // 50ms to ~3.6h
		},
		[]string{"step"},
	)

	// Device metrics
	deviceJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cellflow",
			Name:      "device_jobs_total",
			Help:      "Total number of physical jobs by device and outcome",
		},
		[]string{"device", "outcome"},
	)

	// Main loop
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cellflow",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full scan cycle in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10), // 100ms to ~7h
		},
	)

	ledgerOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cellflow",
			Name:      "ledger_orders",
			Help:      "Number of orders recorded in the dedup ledger",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ordersTotal,
		itemsTotal,
		stepFailuresTotal,
		stepDuration,
		deviceJobsTotal,
		cycleDuration,
		ledgerOrders,
	)
}

// RecordOrder records the result of one order pass.
func RecordOrder(result string) {
	ordersTotal.WithLabelValues(result).Inc()
}

// RecordItem records the result of one item chain.
func RecordItem(result string) {
	itemsTotal.WithLabelValues(result).Inc()
}

// RecordStep records the duration of a step and whether it failed.
func RecordStep(step string, d time.Duration, failed bool) {
	stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if failed {
		stepFailuresTotal.WithLabelValues(step).Inc()
	}
}

// RecordDeviceJob records the outcome of a physical job.
func RecordDeviceJob(device, outcome string) {
	deviceJobsTotal.WithLabelValues(device, outcome).Inc()
}

// RecordCycle records the duration of one scan cycle.
func RecordCycle(d time.Duration) {
	cycleDuration.Observe(d.Seconds())
}

// SetLedgerSize sets the number of ledgered orders.
func SetLedgerSize(n int) {
	ledgerOrders.Set(float64(n))
}
