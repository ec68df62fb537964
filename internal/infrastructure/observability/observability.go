// Package observability assembles the vendor-backed telemetry provider that
// main hands to every component. Instruments are registered up front; asking
// for an unregistered key yields a nop instrument rather than a panic.
package observability

import (
	"github.com/shopflow-io/shopflow/internal/observability"
)

// New builds an Observability from the supplied backends. Nil pieces fall
// back to nops so partial wiring (tests, tools) stays safe.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &provider{
		tracer:  tracer,
		logger:  logger,
		metrics: newInstrumentSet(counters, histograms),
	}
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }

type instrumentSet struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func newInstrumentSet(
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Metrics {
	if len(counters) == 0 && len(histograms) == 0 {
		return observability.NopMetrics()
	}
	set := &instrumentSet{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	for k, c := range counters {
		if c != nil {
			set.counters[k] = c
		}
	}
	for k, h := range histograms {
		if h != nil {
			set.histograms[k] = h
		}
	}
	return set
}

func (s *instrumentSet) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := s.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (s *instrumentSet) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := s.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}
