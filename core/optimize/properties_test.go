package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bessopt/core/model"
	"github.com/kilianp07/bessopt/core/scenario"
)

func assertTrajectoryBounds(t *testing.T, bat model.BatteryCapability, traj model.DispatchTrajectory) {
	t.Helper()
	const eps = 1e-9
	for _, s := range traj {
		assert.GreaterOrEqual(t, s.SoCBefore, bat.SoCMin-eps, "step %d", s.Step)
		assert.LessOrEqual(t, s.SoCAfter, bat.SoCMax+eps, "step %d", s.Step)
		assert.GreaterOrEqual(t, s.SoCAfter, bat.SoCMin-eps, "step %d", s.Step)
		assert.LessOrEqual(t, s.Action.PowerKW, bat.PowerMaxKW+eps, "step %d", s.Step)
		assert.GreaterOrEqual(t, s.Action.PowerKW, 0.0, "step %d", s.Step)
		switch s.Action.Kind {
		case model.ActionCharge:
			assert.GreaterOrEqual(t, s.SoCAfter, s.SoCBefore-eps, "step %d", s.Step)
		case model.ActionDischarge:
			assert.LessOrEqual(t, s.SoCAfter, s.SoCBefore+eps, "step %d", s.Step)
		default:
			assert.InDelta(t, s.SoCBefore, s.SoCAfter, eps, "step %d", s.Step)
		}
	}
}

func TestDispatchBoundsProperty(t *testing.T) {
	batteries := []model.BatteryCapability{
		testBattery(),
		{PowerMaxKW: 50, EnergyCapacityKWh: 100, ChargeEfficiency: 0.92, DischargeEfficiency: 0.9, SoCMin: 0.1, SoCMax: 0.9},
		{PowerMaxKW: 500, EnergyCapacityKWh: 250, ChargeEfficiency: 0.8, DischargeEfficiency: 0.85, SoCMin: 0.2, SoCMax: 0.6},
	}
	params := []model.OptimizationParameters{
		{TimeHorizonHours: 6, TimeStepMinutes: 15},
		{TimeHorizonHours: 12, TimeStepMinutes: 60},
	}
	h := NewHeuristicStrategy(DefaultConfig(), nil)
	s := NewStochasticStrategy(DefaultConfig(), nil)
	for seed := uint64(1); seed <= 5; seed++ {
		for _, bat := range batteries {
			for _, p := range params {
				snaps := randomSnapshots(seed, p.Steps())
				gen := scenario.NewGenerator(scenario.Config{Count: 4, Volatility: 0.2, Seed: seed})
				in := DispatchInput{
					Battery:    bat,
					Snapshots:  snaps,
					Scenarios:  gen.Generate(snaps),
					InitialSoC: float64(seed) / 6,
					Params:     p,
				}
				hr, err := h.Optimize(in)
				require.NoError(t, err)
				assertTrajectoryBounds(t, bat, hr.Trajectory)

				sr, err := s.Optimize(in)
				require.NoError(t, err)
				require.Len(t, sr.Trajectory, p.Steps())
				assertTrajectoryBounds(t, bat, sr.Trajectory)
			}
		}
	}
}
