// Package metric provides Prometheus metrics for the ingress server.
package metric

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a prometheus.Collector that samples live process and
// worker-pool state on every scrape instead of being pushed to.
type Collector struct {
	activeConnections func() int64
	queueDepth        func() int

	goroutines      *prometheus.Desc
	activeConnsDesc *prometheus.Desc
	workerQueueDesc *prometheus.Desc
}

// NewCollector creates a custom collector. activeConnections and
// queueDepth are sampled on every Collect call; either may be nil, in
// which case the corresponding metric reports zero.
func NewCollector(activeConnections func() int64, queueDepth func() int) *Collector {
	return &Collector{
		activeConnections: activeConnections,
		queueDepth:        queueDepth,
		goroutines: prometheus.NewDesc(
			"ingress_goroutines",
			"Number of goroutines currently running.",
			nil, nil,
		),
		activeConnsDesc: prometheus.NewDesc(
			"ingress_connections_active_sampled",
			"Currently open connections, sampled directly from the connection limiter.",
			nil, nil,
		),
		workerQueueDesc: prometheus.NewDesc(
			"ingress_worker_queue_depth",
			"Number of accepted connections waiting for a free worker.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.goroutines
	ch <- c.activeConnsDesc
	ch <- c.workerQueueDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.goroutines, prometheus.GaugeValue, float64(runtime.NumGoroutine()))

	var active int64
	if c.activeConnections != nil {
		active = c.activeConnections()
	}
	ch <- prometheus.MustNewConstMetric(c.activeConnsDesc, prometheus.GaugeValue, float64(active))

	var depth int
	if c.queueDepth != nil {
		depth = c.queueDepth()
	}
	ch <- prometheus.MustNewConstMetric(c.workerQueueDesc, prometheus.GaugeValue, float64(depth))
}
