// Package prometheus exports detector metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	d, _ := densealert.New(3, densealert.WithMetricsCollector(promcollector.New(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "densealert"

// Collector implements densealert.MetricsCollector on Prometheus metrics.
type Collector struct {
	opLatency    *prometheus.HistogramVec
	writes       *prometheus.CounterVec
	expired      prometheus.Counter
	density      prometheus.Gauge
	blockChanges prometheus.Counter
	blockSize    prometheus.Gauge
}

// New creates a collector registered with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of detector operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"op", "status"}),
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "writes_total",
			Help:      "Total tuple mutations processed",
		}, []string{"op", "status"}),
		expired: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "expired_total",
			Help:      "Total tuples expired from windows",
		}),
		density: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "block_density",
			Help:      "Density of the current dense block",
		}),
		blockChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "block_changes_total",
			Help:      "Total changes of the dense block's members",
		}),
		blockSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "block_size",
			Help:      "Number of attribute values in the current dense block",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInsert implements densealert.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	c.opLatency.WithLabelValues("insert", status(err)).Observe(d.Seconds())
	c.writes.WithLabelValues("insert", status(err)).Inc()
}

// RecordDelete implements densealert.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.opLatency.WithLabelValues("delete", status(err)).Observe(d.Seconds())
	c.writes.WithLabelValues("delete", status(err)).Inc()
}

// RecordExpire implements densealert.MetricsCollector.
func (c *Collector) RecordExpire(count int) { c.expired.Add(float64(count)) }

// RecordDensity implements densealert.MetricsCollector.
func (c *Collector) RecordDensity(density float64) { c.density.Set(density) }

// RecordBlockChange implements densealert.MetricsCollector.
func (c *Collector) RecordBlockChange(size int) {
	c.blockChanges.Inc()
	c.blockSize.Set(float64(size))
}
