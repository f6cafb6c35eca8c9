package optimize

import "fmt"

// Config holds the market constants used by the dispatch strategies.
type Config struct {
	SpreadThreshold        float64 `json:"spread_threshold"`
	ArbitragePowerFraction float64 `json:"arbitrage_power_fraction"`
	ArbitrageSoCLow        float64 `json:"arbitrage_soc_low"`
	ArbitrageSoCHigh       float64 `json:"arbitrage_soc_high"`
	// ArbitrageReserve is the SoC kept aside on both ends of the window.
	ArbitrageReserve float64 `json:"arbitrage_reserve"`

	GridServiceThreshold     float64 `json:"grid_service_threshold"`
	GridServicePowerFraction float64 `json:"grid_service_power_fraction"`
	GridServiceSoCLow        float64 `json:"grid_service_soc_low"`
	GridServiceSoCHigh       float64 `json:"grid_service_soc_high"`

	// HeuristicSoCFloor and HeuristicSoCCeiling bound the SoC reached by a
	// heuristic action, in addition to the battery window.
	HeuristicSoCFloor   float64 `json:"heuristic_soc_floor"`
	HeuristicSoCCeiling float64 `json:"heuristic_soc_ceiling"`

	GridPoints int     `json:"grid_points"`
	GridMin    float64 `json:"grid_min"`
	GridMax    float64 `json:"grid_max"`
	Discount   float64 `json:"discount"`
	// SDPChargeCeiling and SDPDischargeFloor limit the energy moved by one
	// stochastic action.
	SDPChargeCeiling  float64 `json:"sdp_charge_ceiling"`
	SDPDischargeFloor float64 `json:"sdp_discharge_floor"`
	// PolicyChargeBelow and PolicyDischargeAbove drive the forward simulation.
	PolicyChargeBelow    float64 `json:"policy_charge_below"`
	PolicyDischargeAbove float64 `json:"policy_discharge_above"`

	// ImprovementFloor bounds the denominator of the comparison percentage.
	ImprovementFloor float64 `json:"improvement_floor"`
}

// DefaultConfig returns the reference market constants.
func DefaultConfig() Config {
	return Config{
		SpreadThreshold:          5,
		ArbitragePowerFraction:   0.8,
		ArbitrageSoCLow:          0.2,
		ArbitrageSoCHigh:         0.8,
		ArbitrageReserve:         0.1,
		GridServiceThreshold:     20,
		GridServicePowerFraction: 0.3,
		GridServiceSoCLow:        0.2,
		GridServiceSoCHigh:       0.8,
		HeuristicSoCFloor:        0.05,
		HeuristicSoCCeiling:      0.95,
		GridPoints:               19,
		GridMin:                  0.05,
		GridMax:                  0.95,
		Discount:                 0.95,
		SDPChargeCeiling:         0.9,
		SDPDischargeFloor:        0.1,
		PolicyChargeBelow:        0.3,
		PolicyDischargeAbove:     0.7,
		ImprovementFloor:         0.01,
	}
}

// Validate checks that the constants describe a usable configuration.
func (c Config) Validate() error {
	if c.SpreadThreshold < 0 || c.GridServiceThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if !fraction(c.ArbitragePowerFraction) || !fraction(c.GridServicePowerFraction) {
		return fmt.Errorf("power fractions must be in (0,1]")
	}
	if c.ArbitrageSoCLow >= c.ArbitrageSoCHigh || c.GridServiceSoCLow > c.GridServiceSoCHigh {
		return fmt.Errorf("soc thresholds are inverted")
	}
	if c.HeuristicSoCFloor >= c.HeuristicSoCCeiling {
		return fmt.Errorf("heuristic soc bounds are inverted")
	}
	if c.GridPoints < 2 {
		return fmt.Errorf("grid_points must be at least 2")
	}
	if c.GridMin < 0 || c.GridMax > 1 || c.GridMin >= c.GridMax {
		return fmt.Errorf("grid bounds must satisfy 0<=min<max<=1")
	}
	if c.Discount <= 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in (0,1]")
	}
	if c.PolicyChargeBelow > c.PolicyDischargeAbove {
		return fmt.Errorf("policy thresholds are inverted")
	}
	if c.ImprovementFloor <= 0 {
		return fmt.Errorf("improvement_floor must be positive")
	}
	return nil
}

func fraction(v float64) bool { return v > 0 && v <= 1 }
