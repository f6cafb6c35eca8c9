package optimize

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/kilianp07/bessopt/core/logger"
	"github.com/kilianp07/bessopt/core/model"
)

// MethodOutcome is the per-strategy part of a comparison.
type MethodOutcome struct {
	Revenue  float64 `json:"revenue"`
	FinalSoC float64 `json:"final_soc"`
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`
	// Result holds the full dispatch result of a successful run.
	Result *model.DispatchResult `json:"-"`
}

// Summary ranks the successful methods.
type Summary struct {
	BestAlgorithm      string  `json:"best_algorithm"`
	ImprovementPercent float64 `json:"improvement_percent"`
}

// ComparisonResult groups the outcome of every method. Comparison is nil
// unless at least two methods succeeded.
type ComparisonResult struct {
	RunID      string                   `json:"run_id"`
	Methods    map[string]MethodOutcome `json:"methods"`
	Order      []string                 `json:"order"`
	Comparison *Summary                 `json:"comparison,omitempty"`
}

// ScenarioSource produces scenarios from a base forecast.
type ScenarioSource interface {
	Generate(base []model.MarketSnapshot) []model.MarketScenario
}

// Comparer runs several strategies on the same input.
type Comparer struct {
	strategies []DispatchStrategy
	scenarios  ScenarioSource
	floor      float64
	log        logger.Logger
}

// NewComparer returns a comparer over strategies. Earlier strategies win
// revenue ties. src is used when the input carries no scenarios and may be
// nil.
func NewComparer(cfg Config, src ScenarioSource, log logger.Logger, strategies ...DispatchStrategy) *Comparer {
	floor := cfg.ImprovementFloor
	if floor <= 0 {
		floor = DefaultConfig().ImprovementFloor
	}
	return &Comparer{strategies: strategies, scenarios: src, floor: floor, log: logger.OrNop(log)}
}

// Compare runs the heuristic and stochastic strategies built from cfg.
func Compare(in DispatchInput, cfg Config, src ScenarioSource, log logger.Logger) ComparisonResult {
	return NewComparer(cfg, src, log,
		NewHeuristicStrategy(cfg, log),
		NewStochasticStrategy(cfg, log),
	).Run(in)
}

// Run executes every strategy. A failing or panicking strategy is reported
// as unsuccessful without affecting the others.
func (c *Comparer) Run(in DispatchInput) ComparisonResult {
	if len(in.Scenarios) == 0 && c.scenarios != nil && len(in.Snapshots) > 0 {
		in.Scenarios = c.scenarios.Generate(in.Snapshots)
		c.log.Debugf("compare: generated %d scenarios", len(in.Scenarios))
	}

	res := ComparisonResult{
		RunID:   uuid.NewString(),
		Methods: make(map[string]MethodOutcome, len(c.strategies)),
	}
	for _, s := range c.strategies {
		out := runSafely(s, in)
		if !out.Success {
			c.log.Warnf("compare: %s failed: %s", s.Name(), out.Error)
		}
		res.Methods[s.Name()] = out
		res.Order = append(res.Order, s.Name())
	}
	res.Comparison = c.summarize(res)
	return res
}

func (c *Comparer) summarize(res ComparisonResult) *Summary {
	var ok []string
	for _, name := range res.Order {
		if res.Methods[name].Success {
			ok = append(ok, name)
		}
	}
	if len(ok) < 2 {
		return nil
	}
	best, worst := ok[0], ok[0]
	for _, name := range ok[1:] {
		r := res.Methods[name].Revenue
		if r > res.Methods[best].Revenue {
			best = name
		}
		if r < res.Methods[worst].Revenue {
			worst = name
		}
	}
	if best == worst {
		worst = ok[1]
		if best == ok[1] {
			worst = ok[0]
		}
	}
	b, o := res.Methods[best].Revenue, res.Methods[worst].Revenue
	return &Summary{
		BestAlgorithm:      best,
		ImprovementPercent: (b - o) / math.Max(math.Abs(o), c.floor) * 100,
	}
}

func runSafely(s DispatchStrategy, in DispatchInput) (out MethodOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = MethodOutcome{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	res, err := s.Optimize(in)
	if err != nil {
		return MethodOutcome{Error: err.Error()}
	}
	return MethodOutcome{
		Revenue:  res.TotalRevenue,
		FinalSoC: res.FinalSoC,
		Success:  true,
		Result:   &res,
	}
}
