package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/bessopt/core/metrics"
)

// PromSink records optimization events in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	revenue    *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	candidates *prometheus.CounterVec
	roi        prometheus.Gauge
	decisions  *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_dispatch_runs_total",
		Help: "Total number of dispatch optimization runs",
	}, []string{"method", "success"}))
	if err != nil {
		return nil, err
	}
	revenue, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bess_dispatch_revenue",
		Help: "Total revenue of the last dispatch run",
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bess_dispatch_duration_seconds",
		Help:    "Wall time of a dispatch run",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}
	candidates, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_sizing_candidates_total",
		Help: "Sizing candidates by outcome",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	roi, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bess_sizing_optimal_roi_percent",
		Help: "ROI of the optimal candidate of the last sizing search",
	}))
	if err != nil {
		return nil, err
	}
	decisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bess_arbitrage_decisions_total",
		Help: "Arbitrage decisions by action kind and market",
	}, []string{"kind", "market"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		runs:       runs,
		revenue:    revenue,
		duration:   duration,
		candidates: candidates,
		roi:        roi,
		decisions:  decisions,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and tracks its revenue and duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Method, strconv.FormatBool(ev.Success)).Inc()
	if ev.Success {
		s.revenue.WithLabelValues(ev.Method).Set(ev.Revenue)
	}
	s.duration.WithLabelValues(ev.Method).Observe(ev.Duration.Seconds())
	return nil
}

// RecordSizing counts candidates by outcome and sets the optimal ROI.
func (s *PromSink) RecordSizing(ev coremetrics.SizingEvent) error {
	s.candidates.WithLabelValues("feasible").Add(float64(ev.Feasible))
	s.candidates.WithLabelValues("infeasible").Add(float64(ev.Evaluated - ev.Feasible))
	s.candidates.WithLabelValues("rejected").Add(float64(ev.Rejected))
	if ev.Feasible > 0 {
		s.roi.Set(ev.ROIPercent)
	}
	return nil
}

// RecordDecision counts the decision.
func (s *PromSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	s.decisions.WithLabelValues(ev.Kind, ev.Market).Inc()
	return nil
}
