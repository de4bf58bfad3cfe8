package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter owns a private prometheus.Registry and exposes it over
// HTTP, so the keeper publishes its tick telemetry without reaching for the
// global default registry.
type PrometheusExporter struct {
	registry *prometheus.Registry
}

// NewPrometheusExporter returns an exporter backed by a fresh registry.
func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{registry: prometheus.NewRegistry()}
}

// MustRegister registers one or more collectors, panicking on a duplicate or
// inconsistent metric the way prometheus.MustRegister does -- reserved for
// process-startup registration, never called after serving begins.
func (p *PrometheusExporter) MustRegister(collectors ...prometheus.Collector) {
	p.registry.MustRegister(collectors...)
}

// Handler returns the /metrics http.Handler for this exporter's registry.
func (p *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NewGaugeVec creates and registers a GaugeVec under this exporter.
func (p *PrometheusExporter) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	v := prometheus.NewGaugeVec(opts, labels)
	p.MustRegister(v)
	return v
}

// NewCounterVec creates and registers a CounterVec under this exporter.
func (p *PrometheusExporter) NewCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	v := prometheus.NewCounterVec(opts, labels)
	p.MustRegister(v)
	return v
}

// NewGauge creates and registers a single Gauge under this exporter.
func (p *PrometheusExporter) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	p.MustRegister(g)
	return g
}

// NewCounter creates and registers a single Counter under this exporter.
func (p *PrometheusExporter) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	p.MustRegister(c)
	return c
}
