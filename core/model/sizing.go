package model

import "time"

// LoadProfile is a series of site load samples in kW taken at a fixed
// interval starting at Start.
type LoadProfile struct {
	Start    time.Time     `json:"start"`
	Interval time.Duration `json:"interval"`
	Samples  []float64     `json:"samples"`
}

// TimeAt returns the timestamp of sample i.
func (p LoadProfile) TimeAt(i int) time.Time {
	return p.Start.Add(time.Duration(i) * p.Interval)
}

// SizingCandidate is one evaluated (power, capacity) grid point.
type SizingCandidate struct {
	PowerKW           float64     `json:"power_kw"`
	CapacityKWh       float64     `json:"capacity_kwh"`
	InvestmentCost    float64     `json:"investment_cost"`
	AnnualSavings     float64     `json:"annual_savings"`
	PaybackYears      float64     `json:"payback_years"`
	ROIPercent        float64     `json:"roi_percent"`
	Feasible          bool        `json:"feasible"`
	MonthlyPeakBefore [12]float64 `json:"monthly_peak_before"`
	MonthlyPeakAfter  [12]float64 `json:"monthly_peak_after"`
}

// Heatmap holds parallel arrays over the feasible candidates.
type Heatmap struct {
	Power      []float64 `json:"power"`
	Capacity   []float64 `json:"capacity"`
	ROI        []float64 `json:"roi"`
	Investment []float64 `json:"investment"`
	Payback    []float64 `json:"payback"`
}

// StrategyEstimate summarizes the yearly value of an operating strategy.
// Estimated is true when the value comes from a fixed multiplier rather than
// from a simulation.
type StrategyEstimate struct {
	Name          string  `json:"name"`
	AnnualSavings float64 `json:"annual_savings"`
	ROIPercent    float64 `json:"roi_percent"`
	PaybackYears  float64 `json:"payback_years"`
	Estimated     bool    `json:"estimated"`
}

// SizingResult is the output of the capacity sizing search.
type SizingResult struct {
	RunID      string             `json:"run_id"`
	Optimal    SizingCandidate    `json:"optimal"`
	Candidates []SizingCandidate  `json:"candidates"`
	Heatmap    Heatmap            `json:"heatmap"`
	Strategies []StrategyEstimate `json:"strategies"`
	Limits     [12]float64        `json:"monthly_limits"`
	Evaluated  int                `json:"evaluated"`
	Rejected   int                `json:"rejected"`
}
