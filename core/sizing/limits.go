package sizing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/bessopt/core/model"
)

// monthly groups the profile samples by calendar month. Index 0 is January.
func monthly(p model.LoadProfile) [12][]float64 {
	var out [12][]float64
	for i, v := range p.Samples {
		m := p.TimeAt(i).Month() - 1
		out[m] = append(out[m], v)
	}
	return out
}

// MonthlyLimits returns the percentile of the load in every calendar month.
// Months without samples report 0.
func MonthlyLimits(p model.LoadProfile, percentile float64) [12]float64 {
	var limits [12]float64
	for m, samples := range monthly(p) {
		if len(samples) == 0 {
			continue
		}
		sorted := append([]float64(nil), samples...)
		sort.Float64s(sorted)
		limits[m] = stat.Quantile(percentile, stat.Empirical, sorted, nil)
	}
	return limits
}

// MonthlyPeaks returns the maximum load of every calendar month.
func MonthlyPeaks(p model.LoadProfile) [12]float64 {
	var peaks [12]float64
	for m, samples := range monthly(p) {
		for _, v := range samples {
			if v > peaks[m] {
				peaks[m] = v
			}
		}
	}
	return peaks
}

func monthsPresent(p model.LoadProfile) [12]bool {
	var present [12]bool
	for m, samples := range monthly(p) {
		present[m] = len(samples) > 0
	}
	return present
}
