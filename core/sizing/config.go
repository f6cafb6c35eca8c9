package sizing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFeasibleCandidate is returned when no grid point shaves every
	// monthly peak.
	ErrNoFeasibleCandidate = errors.New("no feasible sizing candidate")
	// ErrInvalidSearchSpace is returned for empty or inverted search ranges
	// and unusable load profiles.
	ErrInvalidSearchSpace = errors.New("invalid sizing search space")
)

// SearchSpace is the inclusive grid of power and capacity values to evaluate.
type SearchSpace struct {
	PowerMinKW      float64 `json:"power_min_kw"`
	PowerMaxKW      float64 `json:"power_max_kw"`
	PowerStepKW     float64 `json:"power_step_kw"`
	CapacityMinKWh  float64 `json:"capacity_min_kwh"`
	CapacityMaxKWh  float64 `json:"capacity_max_kwh"`
	CapacityStepKWh float64 `json:"capacity_step_kwh"`
}

// Validate checks the ranges.
func (s SearchSpace) Validate() error {
	if s.PowerMinKW <= 0 || s.PowerMaxKW < s.PowerMinKW || s.PowerStepKW <= 0 {
		return fmt.Errorf("%w: power range [%v,%v] step %v", ErrInvalidSearchSpace, s.PowerMinKW, s.PowerMaxKW, s.PowerStepKW)
	}
	if s.CapacityMinKWh <= 0 || s.CapacityMaxKWh < s.CapacityMinKWh || s.CapacityStepKWh <= 0 {
		return fmt.Errorf("%w: capacity range [%v,%v] step %v", ErrInvalidSearchSpace, s.CapacityMinKWh, s.CapacityMaxKWh, s.CapacityStepKWh)
	}
	return nil
}

// Constraints configures the simulation and the economics.
type Constraints struct {
	MaxCRate            float64 `json:"max_c_rate"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	SoCMin              float64 `json:"soc_min"`
	SoCMax              float64 `json:"soc_max"`
	InitialSoC          float64 `json:"initial_soc"`

	CostPerKW              float64 `json:"cost_per_kw"`
	CostPerKWh             float64 `json:"cost_per_kwh"`
	DemandChargePerKWMonth float64 `json:"demand_charge_per_kw_month"`
	HorizonYears           float64 `json:"horizon_years"`
	// LimitPercentile selects the monthly grid limit from the load samples.
	LimitPercentile float64 `json:"limit_percentile"`
}

// DefaultConstraints returns the reference constraints.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxCRate:               1,
		ChargeEfficiency:       0.95,
		DischargeEfficiency:    0.95,
		SoCMin:                 0.1,
		SoCMax:                 0.9,
		InitialSoC:             0.5,
		CostPerKW:              300,
		CostPerKWh:             400,
		DemandChargePerKWMonth: 15,
		HorizonYears:           20,
		LimitPercentile:        0.95,
	}
}

// Validate checks the constraint ranges.
func (c Constraints) Validate() error {
	if c.MaxCRate <= 0 {
		return fmt.Errorf("max_c_rate must be positive")
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 || c.DischargeEfficiency <= 0 || c.DischargeEfficiency > 1 {
		return fmt.Errorf("efficiencies must be in (0,1]")
	}
	if c.SoCMin < 0 || c.SoCMax > 1 || c.SoCMin >= c.SoCMax {
		return fmt.Errorf("soc bounds must satisfy 0<=min<max<=1")
	}
	if c.InitialSoC < c.SoCMin || c.InitialSoC > c.SoCMax {
		return fmt.Errorf("initial_soc must lie within the soc bounds")
	}
	if c.CostPerKW < 0 || c.CostPerKWh < 0 || c.DemandChargePerKWMonth < 0 {
		return fmt.Errorf("costs must not be negative")
	}
	if c.HorizonYears <= 0 {
		return fmt.Errorf("horizon_years must be positive")
	}
	if c.LimitPercentile <= 0 || c.LimitPercentile > 1 {
		return fmt.Errorf("limit_percentile must be in (0,1]")
	}
	return nil
}
