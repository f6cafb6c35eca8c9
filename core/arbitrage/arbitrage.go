// Package arbitrage takes real-time trading decisions from the latest spot
// and intraday observations.
package arbitrage

import (
	"math"

	"github.com/google/uuid"

	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
)

// Config holds the decision thresholds.
type Config struct {
	IntradaySpreadThreshold float64 `json:"intraday_spread_threshold"`
	IntradayHighSpread      float64 `json:"intraday_high_spread"`
	IntradayHighFraction    float64 `json:"intraday_high_fraction"`
	IntradayLowFraction     float64 `json:"intraday_low_fraction"`

	// ReserveMultiplier derives the reserve price from the spot price.
	ReserveMultiplier      float64 `json:"reserve_multiplier"`
	ReserveSpreadThreshold float64 `json:"reserve_spread_threshold"`
	ReserveMinSoC          float64 `json:"reserve_min_soc"`
	ReserveHighSpread      float64 `json:"reserve_high_spread"`
	ReserveHighFraction    float64 `json:"reserve_high_fraction"`
	ReserveLowFraction     float64 `json:"reserve_low_fraction"`

	// BoundMargin is the distance to a SoC bound within which only the
	// opposite direction is allowed.
	BoundMargin float64 `json:"bound_margin"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		IntradaySpreadThreshold: 5,
		IntradayHighSpread:      20,
		IntradayHighFraction:    0.8,
		IntradayLowFraction:     0.5,
		ReserveMultiplier:       2.5,
		ReserveSpreadThreshold:  10,
		ReserveMinSoC:           0.2,
		ReserveHighSpread:       50,
		ReserveHighFraction:     0.5,
		ReserveLowFraction:      0.3,
		BoundMargin:             0.05,
	}
}

// Decision is the action to apply for the next hour.
type Decision struct {
	RunID           string               `json:"run_id"`
	Action          model.DispatchAction `json:"action"`
	Spread          float64              `json:"spread"`
	Price           float64              `json:"price"`
	ExpectedRevenue float64              `json:"expected_revenue"`
	Reason          string               `json:"reason"`
}

// Observations are recent market prices, oldest first. Only the latest value
// of each series is used.
type Observations struct {
	Spot     []float64 `json:"spot"`
	Intraday []float64 `json:"intraday"`
}

type opportunity struct {
	kind   model.ActionKind
	market model.Market
	spread float64
	price  float64
	frac   float64
}

// Decider evaluates the intraday and reserve opportunities.
type Decider struct {
	cfg Config
	log logger.Logger
}

// NewDecider returns a decider. A nil logger discards output.
func NewDecider(cfg Config, log logger.Logger) *Decider {
	return &Decider{cfg: cfg, log: logger.OrNop(log)}
}

// Decide returns the decision for the default thresholds.
func Decide(obs Observations, soc float64, bat model.BatteryCapability) Decision {
	return NewDecider(DefaultConfig(), nil).Decide(obs, soc, bat)
}

// Decide picks the opportunity with the largest spread and sizes it for one
// hour. Missing observations, an invalid battery or a blocked direction all
// yield an idle decision.
func (d *Decider) Decide(obs Observations, soc float64, bat model.BatteryCapability) Decision {
	idle := Decision{RunID: uuid.NewString(), Action: model.Idle()}
	bat = bat.WithDefaults()
	if err := bat.Validate(); err != nil {
		d.log.Warnf("arbitrage: %v", err)
		idle.Reason = "invalid battery"
		return idle
	}
	if len(obs.Spot) == 0 {
		idle.Reason = "no spot observation"
		return idle
	}
	spot := obs.Spot[len(obs.Spot)-1]

	var opps []opportunity
	if len(obs.Intraday) > 0 {
		if o, ok := d.intraday(spot, obs.Intraday[len(obs.Intraday)-1]); ok {
			opps = append(opps, o)
		}
	}
	if o, ok := d.reserve(spot, soc); ok {
		opps = append(opps, o)
	}
	if len(opps) == 0 {
		idle.Reason = "no opportunity"
		return idle
	}
	best := opps[0]
	for _, o := range opps[1:] {
		if math.Abs(o.spread) > math.Abs(best.spread) {
			best = o
		}
	}

	if best.kind == model.ActionDischarge && soc <= bat.SoCMin+d.cfg.BoundMargin {
		idle.Reason = "discharge blocked near minimum soc"
		idle.Spread = best.spread
		return idle
	}
	if best.kind == model.ActionCharge && soc >= bat.SoCMax-d.cfg.BoundMargin {
		idle.Reason = "charge blocked near maximum soc"
		idle.Spread = best.spread
		return idle
	}

	power := best.frac * bat.PowerMaxKW
	var delta float64
	if best.kind == model.ActionCharge {
		power = math.Min(power, (bat.SoCMax-soc)*bat.EnergyCapacityKWh/bat.ChargeEfficiency)
		delta = bat.ChargeDelta(power, 1)
	} else {
		power = math.Min(power, (soc-bat.SoCMin)*bat.EnergyCapacityKWh*bat.DischargeEfficiency)
		delta = -bat.DischargeDelta(power, 1)
	}
	dec := Decision{
		RunID: idle.RunID,
		Action: model.DispatchAction{
			Kind:     best.kind,
			Market:   best.market,
			PowerKW:  power,
			SoCDelta: delta,
		},
		Spread:          best.spread,
		Price:           best.price,
		ExpectedRevenue: power * best.price / 1000,
		Reason:          best.market.String() + " spread",
	}
	d.log.Debugw("arbitrage decision", map[string]any{
		"kind": best.kind.String(), "market": best.market.String(), "power_kw": power, "spread": best.spread,
	})
	return dec
}

func (d *Decider) intraday(spot, intraday float64) (opportunity, bool) {
	spread := intraday - spot
	if math.Abs(spread) <= d.cfg.IntradaySpreadThreshold {
		return opportunity{}, false
	}
	o := opportunity{market: model.MarketIntraday, spread: spread, price: intraday, frac: d.cfg.IntradayLowFraction}
	if math.Abs(spread) > d.cfg.IntradayHighSpread {
		o.frac = d.cfg.IntradayHighFraction
	}
	if spread > 0 {
		o.kind = model.ActionDischarge
	} else {
		o.kind = model.ActionCharge
	}
	return o, true
}

func (d *Decider) reserve(spot, soc float64) (opportunity, bool) {
	price := d.cfg.ReserveMultiplier * spot
	spread := price - spot
	if spread <= d.cfg.ReserveSpreadThreshold || soc <= d.cfg.ReserveMinSoC {
		return opportunity{}, false
	}
	o := opportunity{kind: model.ActionDischarge, market: model.MarketReserve, spread: spread, price: price, frac: d.cfg.ReserveLowFraction}
	if spread > d.cfg.ReserveHighSpread {
		o.frac = d.cfg.ReserveHighFraction
	}
	return o, true
}
