// Package prometrics backs the observability.Metrics port with Prometheus
// collectors on the default registry, which is what /metrics serves.
package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopflow-io/shopflow/internal/observability"
)

// Registry registers instruments at startup. Each name is registered once;
// repeat calls return the existing vec.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

func New(namespace, subsystem string) Registry {
	return &registry{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		namespace:  namespace,
		subsystem:  subsystem,
	}
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	namespace  string
	subsystem  string
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv, ok := r.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
		}, labelKeys)
		prometheus.MustRegister(cv)
		r.counters[name] = cv
	}
	return &counter{vec: cv}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	hv, ok := r.histograms[name]
	if !ok {
		hv = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
		}, labelKeys)
		prometheus.MustRegister(hv)
		r.histograms[name] = hv
	}
	return &histogram{vec: hv}
}

type counter struct{ vec *prometheus.CounterVec }

func (c *counter) Add(delta float64, labels ...observability.Label) {
	c.vec.With(toPromLabels(labels)).Add(delta)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return &boundCounter{vec: c.vec, labels: toPromLabels(labels)}
}

type boundCounter struct {
	vec    *prometheus.CounterVec
	labels prometheus.Labels
}

func (c *boundCounter) Add(delta float64) {
	if c == nil || c.vec == nil {
		return
	}
	c.vec.With(c.labels).Add(delta)
}

type histogram struct{ vec *prometheus.HistogramVec }

func (h *histogram) Observe(value float64, labels ...observability.Label) {
	h.vec.With(toPromLabels(labels)).Observe(value)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return &boundHistogram{vec: h.vec, labels: toPromLabels(labels)}
}

type boundHistogram struct {
	vec    *prometheus.HistogramVec
	labels prometheus.Labels
}

func (h *boundHistogram) Observe(value float64) {
	if h == nil || h.vec == nil {
		return
	}
	h.vec.With(h.labels).Observe(value)
}

func toPromLabels(labels []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}
