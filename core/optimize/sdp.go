package optimize

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
	"github.com/kilianp07/bessopt/core/scenario"
)

// fitValue builds the interpolant of a value function row. Predictions
// outside the grid take the value of the closest end point. It can be
// overridden in tests to simulate numerical failures.
var fitValue = func(grid, values []float64) (func(float64) float64, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(grid, values); err != nil {
		return nil, err
	}
	return pl.Predict, nil
}

// StochasticStrategy solves a discretized stochastic dynamic program over the
// battery SoC and simulates a threshold policy forward.
type StochasticStrategy struct {
	cfg Config
	log logger.Logger
}

// NewStochasticStrategy returns a stochastic strategy. A nil logger discards
// output.
func NewStochasticStrategy(cfg Config, log logger.Logger) *StochasticStrategy {
	return &StochasticStrategy{cfg: cfg, log: logger.OrNop(log)}
}

// SetLogger replaces the logger.
func (s *StochasticStrategy) SetLogger(l logger.Logger) { s.log = logger.OrNop(l) }

// Name implements DispatchStrategy.
func (s *StochasticStrategy) Name() string { return MethodSDP }

// Grid returns the SoC points of the value function.
func (s *StochasticStrategy) Grid() []float64 {
	return floats.Span(make([]float64, s.cfg.GridPoints), s.cfg.GridMin, s.cfg.GridMax)
}

// Optimize runs the backward induction over in.Scenarios and then simulates
// the fixed threshold policy from in.InitialSoC. Invalid inputs yield an
// empty result and no error. Errors are only returned for numerical
// failures.
func (s *StochasticStrategy) Optimize(in DispatchInput) (model.DispatchResult, error) {
	bat, params, err := prepare(in)
	if err != nil {
		s.log.Warnf("sdp: %v", err)
		return emptyResult(MethodSDP, in.InitialSoC), nil
	}
	steps := params.Steps()
	scs, err := s.scenarios(in.Scenarios, steps)
	if err != nil {
		s.log.Warnf("sdp: %v", err)
		return emptyResult(MethodSDP, in.InitialSoC), nil
	}
	dt := params.StepHours()
	grid := s.Grid()

	values, err := s.backward(bat, scs, grid, steps, dt)
	if err != nil {
		return emptyResult(MethodSDP, in.InitialSoC), err
	}
	traj, final := s.forward(bat, scs, in.InitialSoC, steps, dt)

	res := model.DispatchResult{
		RunID:         uuid.NewString(),
		Method:        MethodSDP,
		Trajectory:    traj,
		TotalRevenue:  traj.TotalRevenue(),
		FinalSoC:      final,
		ValueFunction: values,
		SoCGrid:       grid,
	}
	s.log.Debugf("sdp: %d steps, %d scenarios, revenue %.4f, final soc %.3f", steps, len(scs), res.TotalRevenue, final)
	return res, nil
}

func (s *StochasticStrategy) scenarios(in []model.MarketScenario, steps int) ([]model.MarketScenario, error) {
	for _, sc := range in {
		if len(sc.Spot) != steps {
			return nil, fmt.Errorf("scenario %s has %d prices, horizon has %d steps", sc.ID, len(sc.Spot), steps)
		}
	}
	sum := scenario.ProbabilitySum(in)
	out, err := scenario.Normalize(in)
	if err != nil {
		return nil, err
	}
	if math.Abs(sum-1) > scenario.Tolerance {
		s.log.Debugf("sdp: scenario probabilities summed to %.6f, normalized", sum)
	}
	return out, nil
}

// backward computes V[t][i] for t in [0,steps) with V[steps] = 0.
func (s *StochasticStrategy) backward(bat model.BatteryCapability, scs []model.MarketScenario, grid []float64, steps int, dt float64) ([][]float64, error) {
	values := make([][]float64, steps+1)
	values[steps] = make([]float64, len(grid))
	for t := steps - 1; t >= 0; t-- {
		future, err := fitValue(grid, values[t+1])
		if err != nil {
			return nil, fmt.Errorf("fit value function at step %d: %w", t+1, err)
		}
		row := make([]float64, len(grid))
		for i, soc := range grid {
			best := math.Inf(-1)
			for _, a := range s.actions(bat, soc, dt) {
				cont := s.cfg.Discount * future(soc+a.SoCDelta)
				var ev float64
				for _, sc := range scs {
					ev += sc.Probability * (reward(a, sc.Spot[t], dt) + cont)
				}
				best = math.Max(best, ev)
			}
			row[i] = best
		}
		values[t] = row
	}
	return values[:steps], nil
}

// forward simulates the threshold policy. It does not consult the value
// function.
func (s *StochasticStrategy) forward(bat model.BatteryCapability, scs []model.MarketScenario, initial float64, steps int, dt float64) (model.DispatchTrajectory, float64) {
	soc := bat.ClampSoC(initial)
	traj := make(model.DispatchTrajectory, 0, steps)
	for t := 0; t < steps; t++ {
		a := s.policy(bat, soc, dt)
		next := bat.ClampSoC(soc + a.SoCDelta)
		traj = append(traj, model.TrajectoryStep{
			Step:      t,
			Action:    a,
			SoCBefore: soc,
			SoCAfter:  next,
			Revenue:   reward(a, scenario.ExpectedSpot(scs, t), dt),
		})
		soc = next
	}
	return traj, soc
}

func (s *StochasticStrategy) policy(bat model.BatteryCapability, soc, dt float64) model.DispatchAction {
	switch {
	case soc < s.cfg.PolicyChargeBelow:
		if a, ok := s.charge(bat, soc, dt); ok {
			return a
		}
	case soc > s.cfg.PolicyDischargeAbove:
		if a, ok := s.discharge(bat, soc, dt); ok {
			return a
		}
	}
	return model.Idle()
}

func (s *StochasticStrategy) actions(bat model.BatteryCapability, soc, dt float64) []model.DispatchAction {
	acts := []model.DispatchAction{model.Idle()}
	if a, ok := s.charge(bat, soc, dt); ok {
		acts = append(acts, a)
	}
	if a, ok := s.discharge(bat, soc, dt); ok {
		acts = append(acts, a)
	}
	return acts
}

func (s *StochasticStrategy) charge(bat model.BatteryCapability, soc, dt float64) (model.DispatchAction, bool) {
	ceiling := math.Min(s.cfg.SDPChargeCeiling, bat.SoCMax)
	power := math.Min(bat.PowerMaxKW, (ceiling-soc)*bat.EnergyCapacityKWh)
	power = math.Min(power, chargeLimitKW(bat, soc, ceiling, dt))
	if power <= 0 {
		return model.DispatchAction{}, false
	}
	return model.DispatchAction{
		Kind:     model.ActionCharge,
		Market:   model.MarketSpot,
		PowerKW:  power,
		SoCDelta: bat.ChargeDelta(power, dt),
	}, true
}

func (s *StochasticStrategy) discharge(bat model.BatteryCapability, soc, dt float64) (model.DispatchAction, bool) {
	floor := math.Max(s.cfg.SDPDischargeFloor, bat.SoCMin)
	power := math.Min(bat.PowerMaxKW, (soc-floor)*bat.EnergyCapacityKWh)
	power = math.Min(power, dischargeLimitKW(bat, soc, floor, dt))
	if power <= 0 {
		return model.DispatchAction{}, false
	}
	return model.DispatchAction{
		Kind:     model.ActionDischarge,
		Market:   model.MarketSpot,
		PowerKW:  power,
		SoCDelta: -bat.DischargeDelta(power, dt),
	}, true
}

// reward is the cash flow of action a at price over dt hours. Charging pays
// the price, discharging earns it.
func reward(a model.DispatchAction, price, dt float64) float64 {
	switch a.Kind {
	case model.ActionCharge:
		return -math.Abs(a.PowerKW) * price / 1000 * dt
	case model.ActionDischarge:
		return a.PowerKW * price / 1000 * dt
	default:
		return 0
	}
}
