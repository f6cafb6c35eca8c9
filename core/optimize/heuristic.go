package optimize

import (
	"math"

	"github.com/google/uuid"

	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
)

// HeuristicStrategy dispatches greedily, one step at a time, by looking at
// the next spot price and the current grid-service price.
type HeuristicStrategy struct {
	cfg Config
	log logger.Logger
}

// NewHeuristicStrategy returns a heuristic strategy. A nil logger discards
// output.
func NewHeuristicStrategy(cfg Config, log logger.Logger) *HeuristicStrategy {
	return &HeuristicStrategy{cfg: cfg, log: logger.OrNop(log)}
}

// SetLogger replaces the logger.
func (h *HeuristicStrategy) SetLogger(l logger.Logger) { h.log = logger.OrNop(l) }

// Name implements DispatchStrategy.
func (h *HeuristicStrategy) Name() string { return MethodMILP }

type proposal struct {
	action  model.DispatchAction
	revenue float64
}

// Optimize walks the snapshots and applies the most lucrative admissible
// action at each step. Invalid inputs yield an empty result and no error.
func (h *HeuristicStrategy) Optimize(in DispatchInput) (model.DispatchResult, error) {
	if len(in.Snapshots) == 0 {
		h.log.Warnf("heuristic: no market snapshots")
		return emptyResult(MethodMILP, in.InitialSoC), nil
	}
	bat, params, err := prepare(in)
	if err != nil {
		h.log.Warnf("heuristic: %v", err)
		return emptyResult(MethodMILP, in.InitialSoC), nil
	}
	dt := params.StepHours()
	lo := math.Max(h.cfg.HeuristicSoCFloor, bat.SoCMin)
	hi := math.Min(h.cfg.HeuristicSoCCeiling, bat.SoCMax)

	soc := bat.ClampSoC(in.InitialSoC)
	traj := make(model.DispatchTrajectory, 0, len(in.Snapshots))
	for t := range in.Snapshots {
		step := model.TrajectoryStep{Step: t, Action: model.Idle(), SoCBefore: soc, SoCAfter: soc}
		if best, ok := h.best(bat, in.Snapshots, t, soc, dt); ok {
			next := soc + best.action.SoCDelta
			if next < lo || next > hi {
				h.log.Debugw("heuristic action rejected", map[string]any{
					"step": t, "kind": best.action.Kind.String(), "soc": next,
				})
			} else {
				step.Action = best.action
				step.SoCAfter = next
				step.Revenue = best.revenue
				soc = next
			}
		}
		traj = append(traj, step)
	}

	res := model.DispatchResult{
		RunID:        uuid.NewString(),
		Method:       MethodMILP,
		Trajectory:   traj,
		TotalRevenue: traj.TotalRevenue(),
		FinalSoC:     soc,
	}
	h.log.Debugf("heuristic: %d steps, revenue %.4f, final soc %.3f", len(traj), res.TotalRevenue, soc)
	return res, nil
}

// best returns the highest-revenue proposal for step t. Arbitrage is listed
// first so it wins ties.
func (h *HeuristicStrategy) best(bat model.BatteryCapability, snaps []model.MarketSnapshot, t int, soc, dt float64) (proposal, bool) {
	var props []proposal
	if p, ok := h.arbitrage(bat, snaps, t, soc, dt); ok {
		props = append(props, p)
	}
	if p, ok := h.gridService(bat, snaps[t], soc, dt); ok {
		props = append(props, p)
	}
	if len(props) == 0 {
		return proposal{}, false
	}
	best := props[0]
	for _, p := range props[1:] {
		if p.revenue > best.revenue {
			best = p
		}
	}
	return best, true
}

func (h *HeuristicStrategy) arbitrage(bat model.BatteryCapability, snaps []model.MarketSnapshot, t int, soc, dt float64) (proposal, bool) {
	if t+1 >= len(snaps) {
		return proposal{}, false
	}
	spread := snaps[t+1].Spot - snaps[t].Spot
	if math.Abs(spread) <= h.cfg.SpreadThreshold {
		return proposal{}, false
	}
	limit := h.cfg.ArbitragePowerFraction * bat.PowerMaxKW
	capKWh := bat.EnergyCapacityKWh
	switch {
	case spread > 0 && soc > h.cfg.ArbitrageSoCLow:
		power := math.Min(limit, (soc-h.cfg.ArbitrageReserve)*capKWh)
		return proposal{
			action: model.DispatchAction{
				Kind:     model.ActionDischarge,
				Market:   model.MarketSpot,
				PowerKW:  power,
				SoCDelta: -bat.DischargeDelta(power, dt),
			},
			revenue: power * spread / 1000,
		}, true
	case spread < 0 && soc < h.cfg.ArbitrageSoCHigh:
		power := math.Min(limit, ((1-h.cfg.ArbitrageReserve)-soc)*capKWh)
		return proposal{
			action: model.DispatchAction{
				Kind:     model.ActionCharge,
				Market:   model.MarketSpot,
				PowerKW:  power,
				SoCDelta: bat.ChargeDelta(power, dt),
			},
			revenue: power * math.Abs(spread) / 1000,
		}, true
	}
	return proposal{}, false
}

func (h *HeuristicStrategy) gridService(bat model.BatteryCapability, snap model.MarketSnapshot, soc, dt float64) (proposal, bool) {
	if snap.GridService <= h.cfg.GridServiceThreshold {
		return proposal{}, false
	}
	if soc < h.cfg.GridServiceSoCLow || soc > h.cfg.GridServiceSoCHigh {
		return proposal{}, false
	}
	power := h.cfg.GridServicePowerFraction * bat.PowerMaxKW
	return proposal{
		action: model.DispatchAction{
			Kind:     model.ActionDischarge,
			Market:   model.MarketGridService,
			PowerKW:  power,
			SoCDelta: -bat.DischargeDelta(power, dt),
		},
		revenue: power * snap.GridService / 1000,
	}, true
}
