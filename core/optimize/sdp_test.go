package optimize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bessopt/core/model"
)

func twoHours() model.OptimizationParameters {
	return model.OptimizationParameters{TimeHorizonHours: 2, TimeStepMinutes: 15}
}

func TestStochasticGrid(t *testing.T) {
	grid := NewStochasticStrategy(DefaultConfig(), nil).Grid()
	require.Len(t, grid, 19)
	assert.InDelta(t, 0.05, grid[0], 1e-12)
	assert.InDelta(t, 0.10, grid[1], 1e-12)
	assert.InDelta(t, 0.95, grid[18], 1e-12)
}

func TestStochasticForwardPolicy(t *testing.T) {
	s := NewStochasticStrategy(DefaultConfig(), nil)
	in := DispatchInput{
		Battery:    testBattery(),
		Scenarios:  []model.MarketScenario{flatScenario(50, 8)},
		InitialSoC: 0.8,
		Params:     twoHours(),
	}
	res, err := s.Optimize(in)
	require.NoError(t, err)
	assert.Equal(t, MethodSDP, res.Method)
	require.Len(t, res.Trajectory, 8)

	assert.Equal(t, model.ActionDischarge, res.Trajectory[0].Action.Kind)
	assert.InDelta(t, 2, res.Trajectory[0].Action.PowerKW, 1e-9)
	assert.InDelta(t, 0.7375, res.Trajectory[0].SoCAfter, 1e-9)
	assert.Equal(t, model.ActionDischarge, res.Trajectory[1].Action.Kind)
	for _, st := range res.Trajectory[2:] {
		assert.Equal(t, model.ActionIdle, st.Action.Kind)
	}
	assert.InDelta(t, 0.05, res.TotalRevenue, 1e-9)
	assert.InDelta(t, 0.675, res.FinalSoC, 1e-9)
}

func TestStochasticLowSoCCharges(t *testing.T) {
	s := NewStochasticStrategy(DefaultConfig(), nil)
	res, err := s.Optimize(DispatchInput{
		Battery:    testBattery(),
		Scenarios:  []model.MarketScenario{flatScenario(40, 8)},
		InitialSoC: 0.2,
		Params:     twoHours(),
	})
	require.NoError(t, err)
	first := res.Trajectory[0]
	assert.Equal(t, model.ActionCharge, first.Action.Kind)
	assert.InDelta(t, -2*40.0/1000*0.25, first.Revenue, 1e-9)
	assert.Greater(t, first.SoCAfter, first.SoCBefore)
}

func TestStochasticValueFunction(t *testing.T) {
	s := NewStochasticStrategy(DefaultConfig(), nil)
	res, err := s.Optimize(DispatchInput{
		Battery:    testBattery(),
		Scenarios:  []model.MarketScenario{flatScenario(50, 8)},
		InitialSoC: 0.5,
		Params:     twoHours(),
	})
	require.NoError(t, err)
	require.Len(t, res.ValueFunction, 8)
	require.Len(t, res.SoCGrid, 19)
	for _, row := range res.ValueFunction {
		assert.Len(t, row, 19)
	}
	last := res.ValueFunction[7]
	// Below the discharge floor nothing can be sold and charging costs money.
	assert.Zero(t, last[0])
	assert.InDelta(t, 2*50.0/1000*0.25, last[18], 1e-9)
	// More stored energy is never worth less.
	for i := 1; i < 19; i++ {
		assert.GreaterOrEqual(t, res.ValueFunction[0][i], res.ValueFunction[0][i-1]-1e-9)
	}
}

func TestStochasticNormalizesProbabilities(t *testing.T) {
	s := NewStochasticStrategy(DefaultConfig(), nil)
	mk := func(p float64) []model.MarketScenario {
		a := flatScenario(40, 8)
		a.ID, a.Probability = "a", p
		b := flatScenario(80, 8)
		b.ID, b.Probability = "b", p
		return []model.MarketScenario{a, b}
	}
	in := DispatchInput{Battery: testBattery(), InitialSoC: 0.8, Params: twoHours()}
	in.Scenarios = mk(0.5)
	ref, err := s.Optimize(in)
	require.NoError(t, err)
	in.Scenarios = mk(3)
	scaled, err := s.Optimize(in)
	require.NoError(t, err)
	assert.InDelta(t, ref.TotalRevenue, scaled.TotalRevenue, 1e-9)
	assert.InDelta(t, ref.ValueFunction[0][10], scaled.ValueFunction[0][10], 1e-9)
	// Expected price is 60.
	assert.InDelta(t, 2*60.0/1000*0.25, ref.Trajectory[0].Revenue, 1e-9)
}

func TestStochasticInvalidInput(t *testing.T) {
	short := flatScenario(50, 3)
	long := flatScenario(50, 9)
	zero := flatScenario(50, 8)
	zero.Probability = 0
	tests := []struct {
		name string
		in   DispatchInput
	}{
		{"no scenarios", DispatchInput{Battery: testBattery(), InitialSoC: 0.3, Params: twoHours()}},
		{"short scenario", DispatchInput{Battery: testBattery(), Scenarios: []model.MarketScenario{short}, InitialSoC: 0.3, Params: twoHours()}},
		{"long scenario", DispatchInput{Battery: testBattery(), Scenarios: []model.MarketScenario{long}, InitialSoC: 0.3, Params: twoHours()}},
		{"zero probability", DispatchInput{Battery: testBattery(), Scenarios: []model.MarketScenario{zero}, InitialSoC: 0.3, Params: twoHours()}},
		{"bad battery", DispatchInput{Battery: model.BatteryCapability{PowerMaxKW: 1}, Scenarios: []model.MarketScenario{flatScenario(1, 8)}, InitialSoC: 0.3, Params: twoHours()}},
	}
	s := NewStochasticStrategy(DefaultConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Optimize(tt.in)
			require.NoError(t, err)
			assert.Empty(t, res.Trajectory)
			assert.Zero(t, res.TotalRevenue)
			assert.Equal(t, 0.3, res.FinalSoC)
			assert.Nil(t, res.ValueFunction)
		})
	}
}

func TestStochasticFitFailure(t *testing.T) {
	orig := fitValue
	fitValue = func([]float64, []float64) (func(float64) float64, error) {
		return nil, errors.New("singular grid")
	}
	defer func() { fitValue = orig }()

	s := NewStochasticStrategy(DefaultConfig(), nil)
	_, err := s.Optimize(DispatchInput{
		Battery:    testBattery(),
		Scenarios:  []model.MarketScenario{flatScenario(50, 8)},
		InitialSoC: 0.5,
		Params:     twoHours(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singular grid")
}
