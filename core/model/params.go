package model

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is returned by OptimizationParameters.Validate.
var ErrInvalidParameters = errors.New("invalid optimization parameters")

// OptimizationParameters configures a dispatch optimization call.
type OptimizationParameters struct {
	TimeHorizonHours     int     `json:"time_horizon_hours"`
	TimeStepMinutes      int     `json:"time_step_minutes"`
	RiskTolerance        float64 `json:"risk_tolerance"`
	ConfidenceLevel      float64 `json:"confidence_level"`
	MaxIterations        int     `json:"max_iterations"`
	ConvergenceTolerance float64 `json:"convergence_tolerance"`
}

// DefaultParameters returns the parameters used when nothing is configured.
func DefaultParameters() OptimizationParameters {
	var p OptimizationParameters
	p.SetDefaults()
	return p
}

// SetDefaults fills missing fields.
func (p *OptimizationParameters) SetDefaults() {
	if p.TimeHorizonHours <= 0 {
		p.TimeHorizonHours = 24
	}
	if p.TimeStepMinutes <= 0 {
		p.TimeStepMinutes = 15
	}
	if p.RiskTolerance == 0 {
		p.RiskTolerance = 0.1
	}
	if p.ConfidenceLevel == 0 {
		p.ConfidenceLevel = 0.95
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = 1000
	}
	if p.ConvergenceTolerance == 0 {
		p.ConvergenceTolerance = 1e-6
	}
}

// Validate checks the parameter ranges.
func (p OptimizationParameters) Validate() error {
	if p.TimeHorizonHours <= 0 {
		return fmt.Errorf("%w: time_horizon_hours must be positive", ErrInvalidParameters)
	}
	if p.TimeStepMinutes <= 0 || 60%p.TimeStepMinutes != 0 {
		return fmt.Errorf("%w: time_step_minutes must divide an hour", ErrInvalidParameters)
	}
	if p.RiskTolerance < 0 || p.RiskTolerance > 1 {
		return fmt.Errorf("%w: risk_tolerance must be in [0,1]", ErrInvalidParameters)
	}
	if p.ConfidenceLevel <= 0 || p.ConfidenceLevel >= 1 {
		return fmt.Errorf("%w: confidence_level must be in (0,1)", ErrInvalidParameters)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive", ErrInvalidParameters)
	}
	if p.ConvergenceTolerance <= 0 {
		return fmt.Errorf("%w: convergence_tolerance must be positive", ErrInvalidParameters)
	}
	return nil
}

// Steps returns the number of time steps in the horizon.
func (p OptimizationParameters) Steps() int {
	if p.TimeStepMinutes <= 0 {
		return 0
	}
	return p.TimeHorizonHours * 60 / p.TimeStepMinutes
}

// StepHours returns the length of one step in hours.
func (p OptimizationParameters) StepHours() float64 {
	return float64(p.TimeStepMinutes) / 60
}
