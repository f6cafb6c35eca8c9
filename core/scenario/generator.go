package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/bessopt/core/model"
)

// Config controls scenario generation.
type Config struct {
	// Count is the number of scenarios to produce.
	Count int `json:"count"`
	// Volatility is the standard deviation of the perturbation relative to
	// the base price.
	Volatility float64 `json:"volatility"`
	// Seed initializes the random source.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 10
	}
	if c.Volatility == 0 {
		c.Volatility = 0.1
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("scenario count must be positive")
	}
	if c.Volatility < 0 {
		return fmt.Errorf("scenario volatility must not be negative")
	}
	return nil
}

// Generator perturbs a base forecast into equally likely scenarios.
type Generator struct {
	cfg  Config
	norm distuv.Normal
}

// NewGenerator returns a generator seeded from cfg.Seed.
func NewGenerator(cfg Config) *Generator {
	cfg.SetDefaults()
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	return &Generator{cfg: cfg, norm: distuv.Normal{Mu: 0, Sigma: 1, Src: src}}
}

// Generate returns cfg.Count scenarios of the same length as base, each with
// probability 1/Count. Every market series is perturbed independently with
// Gaussian noise proportional to the base price.
func (g *Generator) Generate(base []model.MarketSnapshot) []model.MarketScenario {
	if len(base) == 0 {
		return nil
	}
	spot := model.SpotSeries(base)
	intraday := model.IntradaySeries(base)
	grid := model.GridServiceSeries(base)
	prob := 1 / float64(g.cfg.Count)

	out := make([]model.MarketScenario, g.cfg.Count)
	for i := range out {
		out[i] = model.MarketScenario{
			ID:          fmt.Sprintf("scenario-%d", i),
			Probability: prob,
			Spot:        g.perturb(spot),
			Intraday:    g.perturb(intraday),
			GridService: g.perturb(grid),
		}
	}
	return out
}

func (g *Generator) perturb(series []float64) []float64 {
	out := make([]float64, len(series))
	for t, p := range series {
		out[t] = p + g.norm.Rand()*g.cfg.Volatility*math.Abs(p)
	}
	return out
}
