package sizing

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
)

// Strategy names reported in SizingResult.Strategies.
const (
	StrategyPeakShaving  = "peak_shaving_load_leveling"
	StrategyArbitrage    = "arbitrage"
	StrategyGridServices = "grid_services"
)

// Search evaluates every grid point of space against profile and returns the
// feasible candidate with the highest ROI. ErrNoFeasibleCandidate is returned
// when no candidate shaves every month.
func Search(profile model.LoadProfile, space SearchSpace, c Constraints, log logger.Logger) (model.SizingResult, error) {
	log = logger.OrNop(log)
	if err := space.Validate(); err != nil {
		return model.SizingResult{}, err
	}
	if err := c.Validate(); err != nil {
		return model.SizingResult{}, fmt.Errorf("constraints: %w", err)
	}
	if len(profile.Samples) == 0 || profile.Interval <= 0 {
		return model.SizingResult{}, fmt.Errorf("%w: load profile needs samples and a positive interval", ErrInvalidSearchSpace)
	}

	limits := MonthlyLimits(profile, c.LimitPercentile)
	before := MonthlyPeaks(profile)
	present := monthsPresent(profile)
	res := model.SizingResult{RunID: uuid.NewString(), Limits: limits}

	for _, p := range steps(space.PowerMinKW, space.PowerMaxKW, space.PowerStepKW) {
		for _, q := range steps(space.CapacityMinKWh, space.CapacityMaxKWh, space.CapacityStepKWh) {
			if p > c.MaxCRate*q {
				res.Rejected++
				continue
			}
			res.Evaluated++
			after := simulate(profile, limits, p, q, c)
			if !feasible(present, before, after, limits) {
				log.Debugw("sizing candidate infeasible", map[string]any{"power_kw": p, "capacity_kwh": q})
				continue
			}
			eco := evaluate(p, q, before, after, c)
			res.Candidates = append(res.Candidates, model.SizingCandidate{
				PowerKW:           p,
				CapacityKWh:       q,
				InvestmentCost:    eco.investment,
				AnnualSavings:     eco.savings,
				PaybackYears:      eco.payback,
				ROIPercent:        eco.roi,
				Feasible:          true,
				MonthlyPeakBefore: before,
				MonthlyPeakAfter:  after,
			})
		}
	}
	if len(res.Candidates) == 0 {
		return res, fmt.Errorf("%d candidates evaluated, %d rejected by c-rate: %w", res.Evaluated, res.Rejected, ErrNoFeasibleCandidate)
	}

	res.Optimal = res.Candidates[0]
	for _, cand := range res.Candidates[1:] {
		if cand.ROIPercent > res.Optimal.ROIPercent {
			res.Optimal = cand
		}
	}
	res.Heatmap = heatmap(res.Candidates)
	res.Strategies = strategies(res.Optimal, c.HorizonYears)
	log.Infof("sizing: %d feasible of %d evaluated, optimal %.0f kW / %.0f kWh, ROI %.1f%%",
		len(res.Candidates), res.Evaluated, res.Optimal.PowerKW, res.Optimal.CapacityKWh, res.Optimal.ROIPercent)
	return res, nil
}

// steps returns the inclusive range lo, lo+step, ... up to hi.
func steps(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func heatmap(cands []model.SizingCandidate) model.Heatmap {
	h := model.Heatmap{
		Power:      make([]float64, len(cands)),
		Capacity:   make([]float64, len(cands)),
		ROI:        make([]float64, len(cands)),
		Investment: make([]float64, len(cands)),
		Payback:    make([]float64, len(cands)),
	}
	for i, c := range cands {
		h.Power[i] = c.PowerKW
		h.Capacity[i] = c.CapacityKWh
		h.ROI[i] = c.ROIPercent
		h.Investment[i] = c.InvestmentCost
		h.Payback[i] = c.PaybackYears
	}
	return h
}

func strategies(opt model.SizingCandidate, years float64) []model.StrategyEstimate {
	mk := func(name string, mult float64, estimated bool) model.StrategyEstimate {
		eco := returns(opt.InvestmentCost, opt.AnnualSavings*mult, years)
		return model.StrategyEstimate{
			Name:          name,
			AnnualSavings: eco.savings,
			ROIPercent:    eco.roi,
			PaybackYears:  eco.payback,
			Estimated:     estimated,
		}
	}
	return []model.StrategyEstimate{
		mk(StrategyPeakShaving, 1, false),
		mk(StrategyArbitrage, arbitrageMultiplier, true),
		mk(StrategyGridServices, gridServicesMultiplier, true),
	}
}
