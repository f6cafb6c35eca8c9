// Package app wires configuration, engines, metrics and setpoint publishing
// into the operations exposed by the CLI.
package app

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/bessopt/config"
	"github.com/kilianp07/bessopt/core/arbitrage"
	"github.com/kilianp07/bessopt/core/factory"
	coremetrics "github.com/kilianp07/bessopt/core/metrics"
	"github.com/kilianp07/bessopt/core/model"
	coremon "github.com/kilianp07/bessopt/core/monitoring"
	coremqtt "github.com/kilianp07/bessopt/core/mqtt"
	"github.com/kilianp07/bessopt/core/optimize"
	"github.com/kilianp07/bessopt/core/scenario"
	"github.com/kilianp07/bessopt/core/sizing"
	"github.com/kilianp07/bessopt/infra/logger"
	"github.com/kilianp07/bessopt/infra/metrics"
	"github.com/kilianp07/bessopt/infra/monitoring"
	"github.com/kilianp07/bessopt/infra/mqtt"
)

// Service runs the engines with the configured battery and market settings.
type Service struct {
	cfg       config.Config
	strategy  optimize.DispatchStrategy
	comparer  *optimize.Comparer
	decider   *arbitrage.Decider
	sink      coremetrics.MetricsSink
	publisher coremqtt.Publisher
	monitor   coremon.Monitor
	log       logger.Logger
	timeout   time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithSink replaces the sinks built from the metrics section.
func WithSink(s coremetrics.MetricsSink) Option {
	return func(svc *Service) { svc.sink = s }
}

// WithPublisher replaces the MQTT client built from the mqtt section.
func WithPublisher(p coremqtt.Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// WithMonitor replaces the error reporter built from the monitoring section.
func WithMonitor(m coremon.Monitor) Option {
	return func(svc *Service) { svc.monitor = m }
}

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) { svc.log = l }
}

// newPublisher is overridden in tests to avoid a broker connection.
var newPublisher = func(cfg mqtt.Config) (coremqtt.Publisher, error) {
	c, err := mqtt.NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{cfg: *cfg, timeout: cfg.Timeout()}
	for _, o := range opts {
		o(svc)
	}
	if svc.log == nil {
		logger.SetLevel(cfg.Logging.Level)
		svc.log = logger.New("service")
	}
	if svc.timeout <= 0 {
		svc.timeout = 30 * time.Second
	}

	mc, err := strategyModule(cfg)
	if err != nil {
		return nil, err
	}
	strat, err := optimize.NewStrategy(mc, svc.log)
	if err != nil {
		return nil, err
	}
	svc.strategy = strat
	svc.comparer = optimize.NewComparer(cfg.Market, nil, svc.log,
		optimize.NewHeuristicStrategy(cfg.Market, svc.log),
		optimize.NewStochasticStrategy(cfg.Market, svc.log),
	)
	svc.decider = arbitrage.NewDecider(cfg.Arbitrage, svc.log)

	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.monitor == nil {
		mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
		if err != nil {
			return nil, err
		}
		svc.monitor = mon
	}
	if svc.publisher == nil && cfg.MQTT.Enabled {
		pub, err := newPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// strategyModule layers the strategy conf map over the market section.
func strategyModule(cfg *config.Config) (factory.ModuleConfig, error) {
	base, err := factory.Encode(cfg.Market)
	if err != nil {
		return factory.ModuleConfig{}, fmt.Errorf("market config: %w", err)
	}
	maps.Copy(base, cfg.Strategy.Conf)
	return factory.ModuleConfig{Type: cfg.Strategy.Type, Conf: base}, nil
}

// Input builds a dispatch input from the configured battery, parameters and
// initial SoC.
func (s *Service) Input(snaps []model.MarketSnapshot, scs []model.MarketScenario) optimize.DispatchInput {
	return optimize.DispatchInput{
		Battery:    s.cfg.Battery,
		Snapshots:  snaps,
		Scenarios:  scs,
		InitialSoC: s.cfg.InitialSoC,
		Params:     s.cfg.Optimization,
	}
}

// run executes fn in its own goroutine and gives up when ctx or the service
// timeout expires. The abandoned computation finishes in the background.
func run[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// withScenarios fills in.Scenarios from the snapshots when the input carries
// none. Each call uses its own generator seeded from the scenario section, so
// equal inputs get equal scenarios and no RNG state is shared between calls.
func (s *Service) withScenarios(in optimize.DispatchInput) optimize.DispatchInput {
	if len(in.Scenarios) == 0 && len(in.Snapshots) > 0 {
		in.Scenarios = scenario.NewGenerator(s.cfg.Scenario).Generate(in.Snapshots)
	}
	return in
}

// Dispatch runs the configured strategy. Scenarios are generated from the
// snapshots when the input carries none.
func (s *Service) Dispatch(ctx context.Context, in optimize.DispatchInput) (model.DispatchResult, error) {
	in = s.withScenarios(in)
	start := time.Now()
	res, err := run(ctx, s.timeout, func() (model.DispatchResult, error) {
		defer s.monitor.Recover()
		return s.strategy.Optimize(in)
	})
	if err != nil {
		s.recordRun(coremetrics.RunEvent{Method: s.strategy.Name(), Duration: time.Since(start), Time: start})
		err = fmt.Errorf("dispatch %s: %w", s.strategy.Name(), err)
		s.monitor.CaptureException(err, map[string]string{"operation": "dispatch", "method": s.strategy.Name()})
		return res, err
	}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	s.recordRun(coremetrics.RunEvent{
		RunID:    res.RunID,
		Method:   res.Method,
		Steps:    len(res.Trajectory),
		Revenue:  res.TotalRevenue,
		FinalSoC: res.FinalSoC,
		Success:  true,
		Duration: time.Since(start),
		Time:     start,
	})
	s.log.Infof("dispatch %s: %d steps, revenue %.3f, final soc %.3f", res.Method, len(res.Trajectory), res.TotalRevenue, res.FinalSoC)
	return res, nil
}

// Compare runs both strategies on the same input.
func (s *Service) Compare(ctx context.Context, in optimize.DispatchInput) (optimize.ComparisonResult, error) {
	in = s.withScenarios(in)
	start := time.Now()
	res, err := run(ctx, s.timeout, func() (optimize.ComparisonResult, error) {
		return s.comparer.Run(in), nil
	})
	if err != nil {
		return res, fmt.Errorf("compare: %w", err)
	}
	elapsed := time.Since(start)
	for _, name := range res.Order {
		out := res.Methods[name]
		ev := coremetrics.RunEvent{
			RunID:    res.RunID,
			Method:   name,
			Revenue:  out.Revenue,
			FinalSoC: out.FinalSoC,
			Success:  out.Success,
			Duration: elapsed,
			Time:     start,
		}
		if out.Result != nil {
			ev.Steps = len(out.Result.Trajectory)
		}
		if !out.Success {
			s.monitor.CaptureException(fmt.Errorf("compare %s: %s", name, out.Error), map[string]string{"operation": "compare", "method": name})
		}
		s.recordRun(ev)
	}
	if res.Comparison != nil {
		s.log.Infof("compare: best %s by %.2f%%", res.Comparison.BestAlgorithm, res.Comparison.ImprovementPercent)
	}
	return res, nil
}

// Size runs the capacity sizing search over the configured space.
func (s *Service) Size(ctx context.Context, profile model.LoadProfile) (model.SizingResult, error) {
	if err := s.cfg.Sizing.Space.Validate(); err != nil {
		return model.SizingResult{}, err
	}
	start := time.Now()
	res, err := run(ctx, s.timeout, func() (model.SizingResult, error) {
		defer s.monitor.Recover()
		return sizing.Search(profile, s.cfg.Sizing.Space, s.cfg.Sizing.Constraints, s.log)
	})
	if err != nil {
		err = fmt.Errorf("sizing: %w", err)
		s.monitor.CaptureException(err, map[string]string{"operation": "size"})
		return res, err
	}
	if rec, ok := s.sink.(coremetrics.SizingRecorder); ok {
		ev := coremetrics.SizingEvent{
			RunID:        res.RunID,
			Evaluated:    res.Evaluated,
			Rejected:     res.Rejected,
			Feasible:     len(res.Candidates),
			PowerKW:      res.Optimal.PowerKW,
			CapacityKWh:  res.Optimal.CapacityKWh,
			ROIPercent:   res.Optimal.ROIPercent,
			PaybackYears: res.Optimal.PaybackYears,
			Duration:     time.Since(start),
			Time:         start,
		}
		if err := rec.RecordSizing(ev); err != nil {
			s.log.Warnf("record sizing: %v", err)
		}
	}
	return res, nil
}

// ArbitrageOutcome is a decision plus its delivery status.
type ArbitrageOutcome struct {
	arbitrage.Decision
	CommandID string `json:"command_id,omitempty"`
	Acked     bool   `json:"acked"`
}

// Arbitrage decides the next-hour action from the latest observations and,
// when a publisher is configured, sends it as a setpoint.
func (s *Service) Arbitrage(ctx context.Context, obs arbitrage.Observations, soc float64) (ArbitrageOutcome, error) {
	dec, err := run(ctx, s.timeout, func() (arbitrage.Decision, error) {
		return s.decider.Decide(obs, soc, s.cfg.Battery), nil
	})
	if err != nil {
		return ArbitrageOutcome{}, fmt.Errorf("arbitrage: %w", err)
	}
	out := ArbitrageOutcome{Decision: dec}
	now := time.Now()
	if rec, ok := s.sink.(coremetrics.DecisionRecorder); ok {
		ev := coremetrics.DecisionEvent{
			RunID:           dec.RunID,
			Kind:            dec.Action.Kind.String(),
			Market:          dec.Action.Market.String(),
			PowerKW:         dec.Action.PowerKW,
			Spread:          dec.Spread,
			ExpectedRevenue: dec.ExpectedRevenue,
			Time:            now,
		}
		if err := rec.RecordDecision(ev); err != nil {
			s.log.Warnf("record decision: %v", err)
		}
	}
	if s.publisher == nil {
		return out, nil
	}

	sp := coremqtt.Setpoint{
		RunID:           dec.RunID,
		SiteID:          s.cfg.MQTT.SiteID,
		Kind:            dec.Action.Kind.String(),
		Market:          dec.Action.Market.String(),
		PowerKW:         dec.Action.PowerKW,
		ExpectedRevenue: dec.ExpectedRevenue,
		Timestamp:       now.UnixMilli(),
	}
	id, err := s.publisher.PublishSetpoint(sp)
	if err != nil {
		err = fmt.Errorf("publish setpoint: %w", err)
		s.monitor.CaptureException(err, map[string]string{"operation": "arbitrage", "site": sp.SiteID})
		return out, err
	}
	out.CommandID = id
	if s.cfg.MQTT.AckTimeoutMS <= 0 {
		return out, nil
	}
	acked, err := s.publisher.WaitForAck(id, time.Duration(s.cfg.MQTT.AckTimeoutMS)*time.Millisecond)
	if err != nil {
		s.log.Warnf("setpoint %s: %v", id, err)
		return out, err
	}
	out.Acked = acked
	return out, nil
}

// WriteTextfile dumps the Prometheus registry when a textfile path is set.
func (s *Service) WriteTextfile() error {
	if s.cfg.Metrics.TextfilePath == "" {
		return nil
	}
	return metrics.WriteTextfile(s.cfg.Metrics.TextfilePath, nil)
}

// Close releases the broker connection, flushes closable sinks and pending
// error reports.
func (s *Service) Close() error {
	s.monitor.Flush(2 * time.Second)
	if d, ok := s.publisher.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

func (s *Service) recordRun(ev coremetrics.RunEvent) {
	if err := s.sink.RecordRun(ev); err != nil {
		s.log.Warnf("record run: %v", err)
	}
}
