package optimize

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/bessopt/core/factory"
	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
)

// Method labels reported in results and comparisons.
const (
	MethodMILP = "MILP"
	MethodSDP  = "SDP"
)

// ErrUnknownStrategy is returned by NewStrategy for unregistered types.
var ErrUnknownStrategy = errors.New("unknown dispatch strategy")

// DispatchInput bundles everything a strategy needs for one run.
type DispatchInput struct {
	Battery    model.BatteryCapability      `json:"battery"`
	Snapshots  []model.MarketSnapshot       `json:"snapshots"`
	Scenarios  []model.MarketScenario       `json:"scenarios"`
	InitialSoC float64                      `json:"initial_soc"`
	Params     model.OptimizationParameters `json:"params"`
}

// DispatchStrategy computes a dispatch trajectory. Implementations do not
// keep state between calls.
type DispatchStrategy interface {
	// Name returns the method label, "MILP" or "SDP".
	Name() string
	Optimize(in DispatchInput) (model.DispatchResult, error)
}

var strategies = factory.NewRegistry[DispatchStrategy]()

func init() {
	_ = strategies.Register("heuristic", func(conf map[string]any) (DispatchStrategy, error) {
		cfg, err := decodeConfig(conf)
		if err != nil {
			return nil, err
		}
		return NewHeuristicStrategy(cfg, nil), nil
	})
	_ = strategies.Register("stochastic", func(conf map[string]any) (DispatchStrategy, error) {
		cfg, err := decodeConfig(conf)
		if err != nil {
			return nil, err
		}
		return NewStochasticStrategy(cfg, nil), nil
	})
}

// NewStrategy builds the strategy named by mc.Type ("heuristic" or
// "stochastic"). mc.Conf overrides fields of DefaultConfig.
func NewStrategy(mc factory.ModuleConfig, log logger.Logger) (DispatchStrategy, error) {
	known := false
	for _, n := range strategies.Names() {
		if n == mc.Type {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, mc.Type)
	}
	s, err := strategies.Create(mc)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", mc.Type, err)
	}
	if l, ok := s.(interface{ SetLogger(logger.Logger) }); ok && log != nil {
		l.SetLogger(log)
	}
	return s, nil
}

// StrategyNames lists the registered strategy types.
func StrategyNames() []string { return strategies.Names() }

func decodeConfig(conf map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if err := factory.Decode(conf, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// prepare applies defaults to the battery and parameters and validates both.
func prepare(in DispatchInput) (model.BatteryCapability, model.OptimizationParameters, error) {
	bat := in.Battery.WithDefaults()
	if err := bat.Validate(); err != nil {
		return bat, in.Params, err
	}
	params := in.Params
	params.SetDefaults()
	if err := params.Validate(); err != nil {
		return bat, params, err
	}
	return bat, params, nil
}

// emptyResult is returned for inputs the strategies refuse to process.
func emptyResult(method string, initialSoC float64) model.DispatchResult {
	return model.DispatchResult{Method: method, Trajectory: model.DispatchTrajectory{}, FinalSoC: initialSoC}
}

// chargeLimitKW is the power that brings soc to ceiling within hours.
func chargeLimitKW(bat model.BatteryCapability, soc, ceiling, hours float64) float64 {
	return math.Max(0, (ceiling-soc)*bat.EnergyCapacityKWh/(hours*bat.ChargeEfficiency))
}

// dischargeLimitKW is the power that brings soc down to floor within hours.
func dischargeLimitKW(bat model.BatteryCapability, soc, floor, hours float64) float64 {
	return math.Max(0, (soc-floor)*bat.EnergyCapacityKWh*bat.DischargeEfficiency/hours)
}
