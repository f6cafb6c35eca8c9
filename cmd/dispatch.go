package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bessopt/app"
	"github.com/kilianp07/bessopt/config"
	"github.com/kilianp07/bessopt/core/model"
	"github.com/kilianp07/bessopt/core/optimize"
	"github.com/kilianp07/bessopt/pkg/export"
	"github.com/kilianp07/bessopt/pkg/series"
)

var (
	pricesPath    string
	scenariosPath string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Compute a dispatch trajectory with the configured strategy",
	RunE:  runDispatch,
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the heuristic and stochastic strategies on the same prices",
	RunE:  runCompare,
}

func init() {
	for _, c := range []*cobra.Command{dispatchCmd, compareCmd} {
		c.Flags().StringVar(&pricesPath, "prices", "", "price CSV with spot, intraday and grid_service columns")
		c.Flags().StringVar(&scenariosPath, "scenarios", "", "optional scenario JSON; generated from the prices when empty")
		_ = c.MarkFlagRequired("prices")
		addSoCFlag(c)
		rootCmd.AddCommand(c)
	}
}

func loadInput(svc *app.Service) (optimize.DispatchInput, error) {
	snaps, err := series.OpenSnapshots(pricesPath)
	if err != nil {
		return optimize.DispatchInput{}, fmt.Errorf("prices: %w", err)
	}
	var scs []model.MarketScenario
	if scenariosPath != "" {
		if scs, err = series.OpenScenarios(scenariosPath); err != nil {
			return optimize.DispatchInput{}, fmt.Errorf("scenarios: %w", err)
		}
	}
	return svc.Input(snaps, scs), nil
}

func runDispatch(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, cfg *config.Config, svc *app.Service) error {
		if err := cfg.Battery.WithDefaults().Validate(); err != nil {
			return err
		}
		in, err := loadInput(svc)
		if err != nil {
			return err
		}
		res, err := svc.Dispatch(ctx, in)
		if err != nil {
			return err
		}
		return output(cmd, func(w io.Writer) error {
			if outFormat == "csv" {
				return export.WriteTrajectoryCSV(w, res.Trajectory)
			}
			return export.WriteJSON(w, res)
		})
	})
}

func runCompare(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, cfg *config.Config, svc *app.Service) error {
		if err := cfg.Battery.WithDefaults().Validate(); err != nil {
			return err
		}
		in, err := loadInput(svc)
		if err != nil {
			return err
		}
		res, err := svc.Compare(ctx, in)
		if err != nil {
			return err
		}
		return output(cmd, func(w io.Writer) error {
			if outFormat == "csv" {
				return export.WriteComparisonCSV(w, res)
			}
			return export.WriteJSON(w, res)
		})
	})
}
