// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quillback/memocache/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a Prometheus collector registered with registry. If registry
// is nil, prometheus.DefaultRegisterer is used. The cache label
// distinguishes multiple caches in one process.
func New(registry prometheus.Registerer, cache string) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"cache": cache}

	return &Collector{
		hits: registerCounter(registry, prometheus.CounterOpts{
			Name:        "memocache_hits_total",
			Help:        "Lookups served from the store.",
			ConstLabels: labels,
		}),
		misses: registerCounter(registry, prometheus.CounterOpts{
			Name:        "memocache_misses_total",
			Help:        "Lookups that invoked the wrapped function.",
			ConstLabels: labels,
		}),
		evictions: registerCounter(registry, prometheus.CounterOpts{
			Name:        "memocache_evictions_total",
			Help:        "Entries removed by capacity eviction.",
			ConstLabels: labels,
		}),
		size: registerGauge(registry, prometheus.GaugeOpts{
			Name:        "memocache_entries",
			Help:        "Current number of tracked entries.",
			ConstLabels: labels,
		}),
	}
}

func (c *Collector) Hit()  { c.hits.Inc() }
func (c *Collector) Miss() { c.misses.Inc() }

func (c *Collector) Eviction(count int) {
	c.evictions.Add(float64(count))
}

func (c *Collector) Size(entries int) {
	c.size.Set(float64(entries))
}

func registerCounter(registry prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	counter := prometheus.NewCounter(opts)
	if err := registry.Register(counter); err != nil {
		// If already registered, adopt the existing metric.
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return counter
}

func registerGauge(registry prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	gauge := prometheus.NewGauge(opts)
	if err := registry.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing
			}
		}
	}
	return gauge
}
