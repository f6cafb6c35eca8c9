package model

import (
	"errors"
	"fmt"
)

// ErrInvalidCapability is returned when a battery description cannot be used
// by the engine.
var ErrInvalidCapability = errors.New("invalid battery capability")

// BatteryCapability describes the static limits of a storage system.
// Power is in kW, energy in kWh and SoC values are fractions between 0 and 1.
type BatteryCapability struct {
	PowerMaxKW          float64 `json:"power_max_kw"`
	EnergyCapacityKWh   float64 `json:"energy_capacity_kwh"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	SoCMin              float64 `json:"soc_min"`
	SoCMax              float64 `json:"soc_max"`
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
	RampRateKWPerMin    float64 `json:"ramp_rate_kw_per_min"`
}

// WithDefaults returns a copy where zero efficiencies are treated as lossless
// and an unset SoC window spans the full battery.
func (b BatteryCapability) WithDefaults() BatteryCapability {
	if b.ChargeEfficiency == 0 {
		b.ChargeEfficiency = 1
	}
	if b.DischargeEfficiency == 0 {
		b.DischargeEfficiency = 1
	}
	if b.SoCMin == 0 && b.SoCMax == 0 {
		b.SoCMax = 1
	}
	return b
}

// Validate checks that the capability is physically meaningful.
func (b BatteryCapability) Validate() error {
	if b.PowerMaxKW <= 0 {
		return fmt.Errorf("%w: power must be positive", ErrInvalidCapability)
	}
	if b.EnergyCapacityKWh <= 0 {
		return fmt.Errorf("%w: energy capacity must be positive", ErrInvalidCapability)
	}
	if b.ChargeEfficiency <= 0 || b.ChargeEfficiency > 1 {
		return fmt.Errorf("%w: charge efficiency must be in (0,1]", ErrInvalidCapability)
	}
	if b.DischargeEfficiency <= 0 || b.DischargeEfficiency > 1 {
		return fmt.Errorf("%w: discharge efficiency must be in (0,1]", ErrInvalidCapability)
	}
	if b.SoCMin < 0 || b.SoCMax > 1 || b.SoCMin >= b.SoCMax {
		return fmt.Errorf("%w: soc bounds must satisfy 0<=min<max<=1", ErrInvalidCapability)
	}
	return nil
}

// ClampSoC bounds soc to the capability window.
func (b BatteryCapability) ClampSoC(soc float64) float64 {
	if soc < b.SoCMin {
		return b.SoCMin
	}
	if soc > b.SoCMax {
		return b.SoCMax
	}
	return soc
}

// ChargeDelta returns the SoC increase caused by charging at powerKW for
// hours, after conversion losses.
func (b BatteryCapability) ChargeDelta(powerKW, hours float64) float64 {
	return powerKW * hours * b.ChargeEfficiency / b.EnergyCapacityKWh
}

// DischargeDelta returns the SoC decrease needed to deliver powerKW for hours.
func (b BatteryCapability) DischargeDelta(powerKW, hours float64) float64 {
	return powerKW * hours / b.DischargeEfficiency / b.EnergyCapacityKWh
}
