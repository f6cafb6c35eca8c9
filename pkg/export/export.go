// Package export writes optimization results for the reporting layer.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/bessopt/core/model"
	"github.com/kilianp07/bessopt/core/optimize"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTrajectoryCSV writes one row per dispatch step.
func WriteTrajectoryCSV(w io.Writer, traj model.DispatchTrajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "kind", "market", "power_kw", "soc_before", "soc_after", "revenue"}); err != nil {
		return err
	}
	for _, s := range traj {
		rec := []string{
			strconv.Itoa(s.Step),
			s.Action.Kind.String(),
			s.Action.Market.String(),
			formatFloat(s.Action.PowerKW),
			formatFloat(s.SoCBefore),
			formatFloat(s.SoCAfter),
			formatFloat(s.Revenue),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHeatmapCSV writes the sizing heatmap with one row per feasible
// candidate.
func WriteHeatmapCSV(w io.Writer, h model.Heatmap) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"power_kw", "capacity_kwh", "roi_percent", "investment", "payback_years"}); err != nil {
		return err
	}
	for i := range h.Power {
		rec := []string{
			formatFloat(h.Power[i]),
			formatFloat(h.Capacity[i]),
			formatFloat(h.ROI[i]),
			formatFloat(h.Investment[i]),
			formatFloat(h.Payback[i]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparisonCSV writes one row per compared method in run order.
func WriteComparisonCSV(w io.Writer, res optimize.ComparisonResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"method", "success", "revenue", "final_soc", "error", "best"}); err != nil {
		return err
	}
	for _, name := range res.Order {
		m := res.Methods[name]
		best := res.Comparison != nil && res.Comparison.BestAlgorithm == name
		rec := []string{
			name,
			strconv.FormatBool(m.Success),
			formatFloat(m.Revenue),
			formatFloat(m.FinalSoC),
			m.Error,
			strconv.FormatBool(best),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
