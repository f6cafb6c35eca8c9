package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/bessopt/core/model"
)

func battery() model.BatteryCapability {
	return model.BatteryCapability{
		PowerMaxKW: 100, EnergyCapacityKWh: 400,
		ChargeEfficiency: 1, DischargeEfficiency: 1,
		SoCMin: 0.1, SoCMax: 0.9,
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observations
		soc     float64
		kind    model.ActionKind
		market  model.Market
		power   float64
		revenue float64
	}{
		{
			// reserve spread 1.5*4 = 6 is below its threshold
			name: "intraday discharge, low spread",
			obs:  Observations{Spot: []float64{90, 4}, Intraday: []float64{70, 14}},
			soc:  0.5, kind: model.ActionDischarge, market: model.MarketIntraday, power: 50, revenue: 50 * 14.0 / 1000,
		},
		{
			name: "intraday charge, high spread",
			obs:  Observations{Spot: []float64{4}, Intraday: []float64{-30}},
			soc:  0.5, kind: model.ActionCharge, market: model.MarketIntraday, power: 80, revenue: 80 * -30.0 / 1000,
		},
		{
			name: "reserve beats intraday",
			obs:  Observations{Spot: []float64{40}, Intraday: []float64{50}},
			soc:  0.5, kind: model.ActionDischarge, market: model.MarketReserve, power: 50, revenue: 50 * 100.0 / 1000,
		},
		{
			name: "reserve low fraction",
			obs:  Observations{Spot: []float64{20}},
			soc:  0.5, kind: model.ActionDischarge, market: model.MarketReserve, power: 30, revenue: 30 * 50.0 / 1000,
		},
		{
			name: "no opportunity",
			obs:  Observations{Spot: []float64{4}, Intraday: []float64{6}},
			soc:  0.5, kind: model.ActionIdle,
		},
		{
			name: "reserve needs soc",
			obs:  Observations{Spot: []float64{40}},
			soc:  0.2, kind: model.ActionIdle,
		},
		{
			name: "discharge blocked near minimum",
			obs:  Observations{Spot: []float64{4}, Intraday: []float64{40}},
			soc:  0.14, kind: model.ActionIdle,
		},
		{
			name: "charge blocked near maximum",
			obs:  Observations{Spot: []float64{4}, Intraday: []float64{-10}},
			soc:  0.86, kind: model.ActionIdle,
		},
		{
			name: "charge allowed near minimum",
			obs:  Observations{Spot: []float64{4}, Intraday: []float64{-10}},
			soc:  0.12, kind: model.ActionCharge, market: model.MarketIntraday, power: 50, revenue: 50 * -10.0 / 1000,
		},
		{
			name: "empty observations",
			obs:  Observations{},
			soc:  0.5, kind: model.ActionIdle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.obs, tt.soc, battery())
			assert.NotEmpty(t, d.RunID)
			assert.NotEmpty(t, d.Reason)
			assert.Equal(t, tt.kind, d.Action.Kind)
			if tt.kind == model.ActionIdle {
				assert.Zero(t, d.Action.PowerKW)
				assert.Zero(t, d.ExpectedRevenue)
				return
			}
			assert.Equal(t, tt.market, d.Action.Market)
			assert.InDelta(t, tt.power, d.Action.PowerKW, 1e-9)
			assert.InDelta(t, tt.revenue, d.ExpectedRevenue, 1e-9)
			next := tt.soc + d.Action.SoCDelta
			assert.GreaterOrEqual(t, next, 0.1-1e-9)
			assert.LessOrEqual(t, next, 0.9+1e-9)
		})
	}
}

func TestDecideLimitsPowerToStoredEnergy(t *testing.T) {
	bat := battery()
	bat.EnergyCapacityKWh = 100
	d := Decide(Observations{Spot: []float64{4}, Intraday: []float64{40}}, 0.2, bat)
	assert.Equal(t, model.ActionDischarge, d.Action.Kind)
	assert.InDelta(t, 10, d.Action.PowerKW, 1e-9)
	assert.InDelta(t, -0.1, d.Action.SoCDelta, 1e-9)
}

func TestDecideInvalidBattery(t *testing.T) {
	d := Decide(Observations{Spot: []float64{40}}, 0.5, model.BatteryCapability{})
	assert.Equal(t, model.ActionIdle, d.Action.Kind)
	assert.Equal(t, "invalid battery", d.Reason)
}
