package scenario

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/bessopt/core/model"
)

// Tolerance is the accepted deviation of a probability sum from 1.
const Tolerance = 1e-6

var (
	// ErrNoScenarios is returned when an empty scenario set is supplied.
	ErrNoScenarios = errors.New("no scenarios")
	// ErrInvalidProbability is returned for negative or all-zero probabilities.
	ErrInvalidProbability = errors.New("invalid scenario probabilities")
)

// ProbabilitySum returns the total probability of the set.
func ProbabilitySum(scs []model.MarketScenario) float64 {
	return floats.Sum(probabilities(scs))
}

// Normalize returns a copy of scs whose probabilities sum to 1. Sets that
// already sum to 1 within Tolerance are copied untouched.
func Normalize(scs []model.MarketScenario) ([]model.MarketScenario, error) {
	if len(scs) == 0 {
		return nil, ErrNoScenarios
	}
	probs := probabilities(scs)
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: scenario %s has probability %v", ErrInvalidProbability, scs[i].ID, p)
		}
	}
	sum := floats.Sum(probs)
	if sum <= 0 {
		return nil, fmt.Errorf("%w: probabilities sum to %v", ErrInvalidProbability, sum)
	}
	out := make([]model.MarketScenario, len(scs))
	copy(out, scs)
	if math.Abs(sum-1) <= Tolerance {
		return out, nil
	}
	floats.Scale(1/sum, probs)
	for i := range out {
		out[i].Probability = probs[i]
	}
	return out, nil
}

// ExpectedSpot returns the probability-weighted mean spot price at step t.
// It is zero when the probabilities sum to zero.
func ExpectedSpot(scs []model.MarketScenario, t int) float64 {
	probs := probabilities(scs)
	if floats.Sum(probs) <= 0 {
		return 0
	}
	prices := make([]float64, len(scs))
	for i, s := range scs {
		prices[i] = s.Spot[t]
	}
	return stat.Mean(prices, probs)
}

func probabilities(scs []model.MarketScenario) []float64 {
	probs := make([]float64, len(scs))
	for i, s := range scs {
		probs[i] = s.Probability
	}
	return probs
}
