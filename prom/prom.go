// Package prom bridges pm measurements into Prometheus. It offers two
// complementary exporters: Observer feeds live allocation traffic into
// Prometheus counters and gauges, and ReportCollector exposes the
// flattened metrics of a finished phase report on every scrape.
package prom

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdinklag/pm"
)

// ReportSource yields the report to expose. Phase implements it.
type ReportSource interface {
	Report() pm.Report
}

// ReportCollector is a prometheus.Collector exposing the numeric metrics
// of a report tree as gauges. Each metric key becomes a metric name under
// the given namespace, labeled with the dotted phase path. Non-numeric
// metrics and auxiliary data are skipped; Prometheus has no place for
// them.
//
// The collector queries its source on every scrape, so registering a live
// phase exposes whatever the meters report at scrape time.
type ReportCollector struct {
	source    ReportSource
	namespace string
}

// NewReportCollector creates a collector for the given source. The
// namespace prefixes every exported metric name; pass "pm" for metrics
// like pm_time_milliseconds.
func NewReportCollector(source ReportSource, namespace string) *ReportCollector {
	return &ReportCollector{source: source, namespace: namespace}
}

// Describe implements prometheus.Collector. The metric set depends on the
// report's shape, so the collector is unchecked and describes nothing.
func (c *ReportCollector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	c.collectReport(ch, "", c.source.Report())
}

func (c *ReportCollector) collectReport(ch chan<- prometheus.Metric, path string, rep pm.Report) {
	phase := joinPath(path, rep.Name)
	for key, value := range flattenMetrics("", rep.Metrics) {
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(c.namespace, "", metricName(key)),
			"pm phase metric "+key,
			[]string{"phase"}, nil,
		)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value, phase)
	}
	for _, child := range rep.Children {
		c.collectReport(ch, phase, child)
	}
}

// flattenMetrics reduces a metrics object to dotted numeric leaves. Meter
// snapshots are structs; they are unfolded the same way the serialized
// report nests them.
func flattenMetrics(prefix string, metrics map[string]any) map[string]float64 {
	out := make(map[string]float64)
	for key, value := range metrics {
		flattenValue(out, joinPath(prefix, key), value)
	}
	return out
}

func flattenValue(out map[string]float64, key string, value any) {
	switch t := value.(type) {
	case float64:
		out[key] = t
	case float32:
		out[key] = float64(t)
	case int:
		out[key] = float64(t)
	case int64:
		out[key] = float64(t)
	case uint64:
		out[key] = float64(t)
	case pm.MemoryMetrics:
		out[joinPath(key, "peak")] = float64(t.Peak)
		out[joinPath(key, "closing")] = float64(t.Closing)
		out[joinPath(key, "alloc_num")] = float64(t.AllocNum)
		out[joinPath(key, "alloc_bytes")] = float64(t.AllocBytes)
		out[joinPath(key, "free_num")] = float64(t.FreeNum)
		out[joinPath(key, "free_bytes")] = float64(t.FreeBytes)
	case pm.RusageMetrics:
		out[joinPath(key, "user_time")] = t.UserTime
		out[joinPath(key, "system_time")] = t.SystemTime
		out[joinPath(key, "max_rss")] = float64(t.MaxRSS)
	case map[string]any:
		for k, v := range t {
			flattenValue(out, joinPath(key, k), v)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// metricName turns a dotted metric key into a Prometheus-safe name.
func metricName(key string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(key)
}

// Observer feeds live allocation traffic into Prometheus. Register it
// with a callback registry to count every allocation and free the heap
// interceptor serves, and with a Prometheus registry to scrape the
// totals.
type Observer struct {
	allocsTotal     prometheus.Counter
	allocBytesTotal prometheus.Counter
	freesTotal      prometheus.Counter
	freeBytesTotal  prometheus.Counter
	outstanding     prometheus.Gauge
}

// NewObserver creates an observer exporting under the given namespace.
func NewObserver(namespace string) *Observer {
	return &Observer{
		allocsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heap_allocs_total",
			Help:      "Total number of tracked heap allocations.",
		}),
		allocBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heap_alloc_bytes_total",
			Help:      "Total number of bytes allocated through the interceptor.",
		}),
		freesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heap_frees_total",
			Help:      "Total number of tracked heap frees.",
		}),
		freeBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heap_free_bytes_total",
			Help:      "Total number of bytes released through the interceptor.",
		}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_outstanding_bytes",
			Help:      "Bytes currently allocated and not yet freed.",
		}),
	}
}

// OnAlloc implements callback.Callback.
func (o *Observer) OnAlloc(bytes int) {
	o.allocsTotal.Inc()
	o.allocBytesTotal.Add(float64(bytes))
	o.outstanding.Add(float64(bytes))
}

// OnFree implements callback.Callback.
func (o *Observer) OnFree(bytes int) {
	o.freesTotal.Inc()
	o.freeBytesTotal.Add(float64(bytes))
	o.outstanding.Sub(float64(bytes))
}

// Describe implements prometheus.Collector.
func (o *Observer) Describe(ch chan<- *prometheus.Desc) {
	o.allocsTotal.Describe(ch)
	o.allocBytesTotal.Describe(ch)
	o.freesTotal.Describe(ch)
	o.freeBytesTotal.Describe(ch)
	o.outstanding.Describe(ch)
}

// Collect implements prometheus.Collector.
func (o *Observer) Collect(ch chan<- prometheus.Metric) {
	o.allocsTotal.Collect(ch)
	o.allocBytesTotal.Collect(ch)
	o.freesTotal.Collect(ch)
	o.freeBytesTotal.Collect(ch)
	o.outstanding.Collect(ch)
}
