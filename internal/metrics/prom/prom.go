// Package prom implements a pull-based Prometheus backend for the
// internal/metrics package. Observations land in a private registry that the
// HTTP service exposes on /metrics.
package prom

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alvianzf/jsonify/internal/metrics"
)

// Backend implements metrics.Backend on a prometheus.Registry.
//
// Collectors are created on first use of a metric name. The label set is
// fixed by that first observation; later observations with other label names
// are dropped (Prometheus rejects inconsistent label sets).
type Backend struct {
	registry  *prometheus.Registry
	constTags prometheus.Labels

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labelNames map[string][]string
}

// NewBackend returns a backend with Go runtime and process collectors
// registered. constLabels (e.g. job) are attached to every series.
func NewBackend(constLabels map[string]string) *Backend {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Backend{
		registry:   reg,
		constTags:  prometheus.Labels(constLabels),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelNames: make(map[string][]string),
	}
}

// Registry returns the underlying registry.
func (b *Backend) Registry() *prometheus.Registry { return b.registry }

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func sortedNames(l metrics.Labels) []string {
	names := make([]string, 0, len(l))
	for k := range l {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// sameNames reports whether l has exactly the label names in want.
func sameNames(want []string, l metrics.Labels) bool {
	if len(want) != len(l) {
		return false
	}
	for _, n := range want {
		if _, ok := l[n]; !ok {
			return false
		}
	}
	return true
}

// bucketsFor picks histogram buckets by metric unit.
func bucketsFor(name string) []float64 {
	if name == metrics.HTTPDownloadBytes {
		return prometheus.ExponentialBuckets(256, 4, 10)
	}
	return prometheus.DefBuckets
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	vec, ok := b.counters[name]
	if !ok {
		names := sortedNames(labels)
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name,
			Help:        fmt.Sprintf("Counter %s.", name),
			ConstLabels: b.constTags,
		}, names)
		if err := b.registry.Register(vec); err != nil {
			return
		}
		b.counters[name] = vec
		b.labelNames[name] = names
	}
	if !sameNames(b.labelNames[name], labels) {
		return
	}
	vec.With(prometheus.Labels(labels)).Add(delta)
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	vec, ok := b.histograms[name]
	if !ok {
		names := sortedNames(labels)
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        name,
			Help:        fmt.Sprintf("Histogram %s.", name),
			ConstLabels: b.constTags,
			Buckets:     bucketsFor(name),
		}, names)
		if err := b.registry.Register(vec); err != nil {
			return
		}
		b.histograms[name] = vec
		b.labelNames[name] = names
	}
	if !sameNames(b.labelNames[name], labels) {
		return
	}
	vec.With(prometheus.Labels(labels)).Observe(value)
}

// Flush is a no-op: Prometheus scrapes the registry.
func (b *Backend) Flush() error { return nil }

var _ metrics.Backend = (*Backend)(nil)
