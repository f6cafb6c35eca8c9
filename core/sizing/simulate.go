package sizing

import (
	"math"

	"github.com/kilianp07/bessopt/core/model"
)

// simulate runs the peak-shaving dispatch of a battery with powerKW and
// capacityKWh over the whole profile and returns the monthly peaks of the
// resulting grid load. The SoC carries over from one month to the next.
func simulate(p model.LoadProfile, limits [12]float64, powerKW, capacityKWh float64, c Constraints) [12]float64 {
	var peaks [12]float64
	dt := p.Interval.Hours()
	soc := c.InitialSoC
	for i, load := range p.Samples {
		m := p.TimeAt(i).Month() - 1
		limit := limits[m]
		net := load
		switch {
		case load > limit && soc > c.SoCMin:
			deliverable := (soc - c.SoCMin) * capacityKWh * c.DischargeEfficiency
			power := math.Min(powerKW, math.Min(load-limit, deliverable/dt))
			soc -= power * dt / c.DischargeEfficiency / capacityKWh
			net = load - power
		case load < limit && soc < c.SoCMax:
			storable := (c.SoCMax - soc) * capacityKWh / c.ChargeEfficiency
			power := math.Min(powerKW, math.Min(limit-load, storable/dt))
			soc += power * dt * c.ChargeEfficiency / capacityKWh
			net = load + power
		}
		soc = math.Max(c.SoCMin, math.Min(c.SoCMax, soc))
		if net > peaks[m] {
			peaks[m] = net
		}
	}
	return peaks
}

// feasible reports whether every month present in the profile had its peak
// lowered and kept at or below the limit.
func feasible(present [12]bool, before, after, limits [12]float64) bool {
	const eps = 1e-9
	seen := false
	for m := range present {
		if !present[m] {
			continue
		}
		seen = true
		if after[m] >= before[m] || after[m] > limits[m]+eps {
			return false
		}
	}
	return seen
}
