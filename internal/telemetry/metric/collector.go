// Package metric provides Prometheus metrics for minikv.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/minikv/internal/storage/memory"
)

// StatsSource reports point-in-time store statistics.
type StatsSource interface {
	Stats() memory.Stats
}

// Collector exports store statistics at scrape time.
type Collector struct {
	src StatsSource

	keys          *prometheus.Desc
	channels      *prometheus.Desc
	subscriptions *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Number of keys held, including expired keys not yet purged.",
			nil, nil,
		),
		channels: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pubsub", "channels"),
			"Number of channels with at least one subscriber.",
			nil, nil,
		),
		subscriptions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pubsub", "subscriptions"),
			"Number of channel subscriptions across all subscribers.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.channels
	ch <- c.subscriptions
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.channels, prometheus.GaugeValue, float64(st.Channels))
	ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(st.Subscriptions))
}
