// Package metrics exposes the master's assignment engine as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AssignmentCollector records coordinator and scanner activity. A nil
// collector is valid and records nothing.
type AssignmentCollector struct {
	operations      *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	attemptDuration *prometheus.HistogramVec
	offlineRaces    prometheus.Counter
	coordDown       prometheus.Counter
	catalogRows     prometheus.Gauge
	onlineCatalog   prometheus.Gauge
	regionsOpened   *Rate
}

// NewAssignmentCollector creates a collector registered on the provided registry (default if nil).
func NewAssignmentCollector(reg prometheus.Registerer, namespace string) *AssignmentCollector {
	if namespace == "" {
		namespace = "regionmaster"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	builder := promauto.With(reg)
	return &AssignmentCollector{
		operations: builder.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Processed operation attempts by kind and result.",
		}, []string{"kind", "result"}),
		queueDepth: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operation_queue_depth",
			Help:      "Operations waiting in the ready and delayed queues.",
		}),
		attemptDuration: builder.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_attempt_seconds",
			Help:      "Latency of a single operation attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"kind"}),
		offlineRaces: builder.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_races_total",
			Help:      "Open reports that lost the race against an offline request.",
		}),
		coordDown: builder.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordination_unavailable_total",
			Help:      "Coordination calls that failed because the service was unreachable.",
		}),
		catalogRows: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rows",
			Help:      "Rows seen by the last catalog scan.",
		}),
		onlineCatalog: builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_partitions_online",
			Help:      "Catalog partitions currently online.",
		}),
		regionsOpened: newRate(builder.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "region_open_rate",
			Help:      "Regions brought online per second over the last interval.",
		}), nil),
	}
}

// ObserveAttempt records one attempt outcome and its latency.
func (c *AssignmentCollector) ObserveAttempt(kind, result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(kind, result).Inc()
	c.attemptDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetQueueDepth publishes the number of queued operations.
func (c *AssignmentCollector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

// OfflineRace counts an open report that found its region offlined.
func (c *AssignmentCollector) OfflineRace() {
	if c == nil {
		return
	}
	c.offlineRaces.Inc()
}

// CoordinationUnavailable counts a coordination call lost to connectivity.
func (c *AssignmentCollector) CoordinationUnavailable() {
	if c == nil {
		return
	}
	c.coordDown.Inc()
}

// RegionOpened counts a region recorded online.
func (c *AssignmentCollector) RegionOpened() {
	if c == nil {
		return
	}
	c.regionsOpened.Inc(1)
}

// ObserveScan publishes the results of a catalog scan pass.
func (c *AssignmentCollector) ObserveScan(rows, onlinePartitions int) {
	if c == nil {
		return
	}
	c.catalogRows.Set(float64(rows))
	c.onlineCatalog.Set(float64(onlinePartitions))
}

// Rates returns the interval rates to be pushed by RunRates.
func (c *AssignmentCollector) Rates() []*Rate {
	if c == nil {
		return nil
	}
	return []*Rate{c.regionsOpened}
}
