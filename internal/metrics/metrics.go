// Package metrics holds the prometheus collectors for the pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	rowsEmitted   *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	lastSkipped   *prometheus.GaugeVec
	storeWrites   *prometheus.CounterVec
	forecastCache *prometheus.CounterVec
	cbState       *prometheus.GaugeVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline task runs by task and outcome.",
		}, []string{"task", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of pipeline task runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		rowsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_rows_emitted_total",
			Help: "Rows written to the store by series.",
		}, []string{"series"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_rows_skipped_total",
			Help: "Candidate rows dropped for empty or non-numeric cells by series.",
		}, []string{"series"}),
		lastSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_last_run_rows_skipped",
			Help: "Rows skipped by the most recent successful extraction.",
		}, []string{"series"}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Full-replace store writes by series and outcome.",
		}, []string{"series", "status"}),
		forecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_cache_requests_total",
			Help: "Forecast cache lookups by result.",
		}, []string{"result"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fetch_circuit_breaker_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half-open, 2 open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.rowsEmitted,
		m.rowsSkipped,
		m.lastSkipped,
		m.storeWrites,
		m.forecastCache,
		m.cbState,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records one task run.
func (m *Metrics) ObserveRun(task string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(task, status).Inc()
	m.runDuration.WithLabelValues(task).Observe(seconds)
}

// ObserveExtraction records emitted and skipped row counts for a series.
func (m *Metrics) ObserveExtraction(seriesName string, emitted, skipped int) {
	if m == nil {
		return
	}
	m.rowsEmitted.WithLabelValues(seriesName).Add(float64(emitted))
	m.rowsSkipped.WithLabelValues(seriesName).Add(float64(skipped))
	m.lastSkipped.WithLabelValues(seriesName).Set(float64(skipped))
}

// ObserveStoreWrite records one store write.
func (m *Metrics) ObserveStoreWrite(seriesName string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.storeWrites.WithLabelValues(seriesName, status).Inc()
}

// ObserveForecastCache records a cache hit or miss.
func (m *Metrics) ObserveForecastCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.forecastCache.WithLabelValues(result).Inc()
}

// BreakerStateChange matches gobreaker.Settings.OnStateChange.
func (m *Metrics) BreakerStateChange(name string, from, to gobreaker.State) {
	if m == nil {
		return
	}
	var v float64
	switch to {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.cbState.WithLabelValues(name).Set(v)
}
