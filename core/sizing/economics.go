package sizing

import "math"

// denominatorFloor keeps ratios finite when savings or investment vanish.
const denominatorFloor = 0.01

// Strategy multipliers applied to the peak-shaving savings. These are rough
// estimates, not simulations.
const (
	arbitrageMultiplier    = 0.8
	gridServicesMultiplier = 0.6
)

type economics struct {
	investment float64
	savings    float64
	payback    float64
	roi        float64
}

func evaluate(powerKW, capacityKWh float64, before, after [12]float64, c Constraints) economics {
	investment := powerKW*c.CostPerKW + capacityKWh*c.CostPerKWh
	var reduction float64
	for m := range before {
		reduction += before[m] - after[m]
	}
	return returns(investment, reduction*c.DemandChargePerKWMonth, c.HorizonYears)
}

func returns(investment, savings, years float64) economics {
	return economics{
		investment: investment,
		savings:    savings,
		payback:    investment / math.Max(savings, denominatorFloor),
		roi:        (savings*years - investment) / math.Max(investment, denominatorFloor) * 100,
	}
}
