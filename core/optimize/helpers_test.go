package optimize

import (
	"github.com/kilianp07/bessopt/core/model"
)

func testBattery() model.BatteryCapability {
	return model.BatteryCapability{
		PowerMaxKW:          2,
		EnergyCapacityKWh:   8,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		SoCMin:              0,
		SoCMax:              1,
	}
}

func repeatSpot(pattern []float64, times int) []model.MarketSnapshot {
	var snaps []model.MarketSnapshot
	for i := 0; i < times; i++ {
		for _, p := range pattern {
			snaps = append(snaps, model.MarketSnapshot{Spot: p})
		}
	}
	return snaps
}

func flatScenario(price float64, steps int) model.MarketScenario {
	spot := make([]float64, steps)
	for i := range spot {
		spot[i] = price
	}
	return model.MarketScenario{ID: "flat", Probability: 1, Spot: spot}
}

type recordLogger struct {
	warns []string
}

func (r *recordLogger) Debugf(string, ...any)         {}
func (r *recordLogger) Debugw(string, map[string]any) {}
func (r *recordLogger) Infof(string, ...any)          {}
func (r *recordLogger) Warnf(f string, _ ...any)      { r.warns = append(r.warns, f) }
func (r *recordLogger) Errorf(string, ...any)         {}
