package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bessopt/app"
	"github.com/kilianp07/bessopt/config"
	"github.com/kilianp07/bessopt/core/arbitrage"
	"github.com/kilianp07/bessopt/pkg/export"
)

var (
	spotPrice     float64
	intradayPrice float64
)

var arbitrageCmd = &cobra.Command{
	Use:   "arbitrage",
	Short: "Decide the next-hour action from the latest prices and publish it",
	RunE:  runArbitrage,
}

func init() {
	arbitrageCmd.Flags().Float64Var(&spotPrice, "spot", 0, "latest spot price")
	arbitrageCmd.Flags().Float64Var(&intradayPrice, "intraday", 0, "latest intraday price")
	_ = arbitrageCmd.MarkFlagRequired("spot")
	addSoCFlag(arbitrageCmd)
	rootCmd.AddCommand(arbitrageCmd)
}

func runArbitrage(cmd *cobra.Command, _ []string) error {
	if outFormat != "json" {
		return fmt.Errorf("arbitrage only supports json output")
	}
	return withService(cmd, func(ctx context.Context, cfg *config.Config, svc *app.Service) error {
		obs := arbitrage.Observations{Spot: []float64{spotPrice}}
		if cmd.Flags().Changed("intraday") {
			obs.Intraday = []float64{intradayPrice}
		}
		out, err := svc.Arbitrage(ctx, obs, cfg.InitialSoC)
		if err != nil {
			return err
		}
		return output(cmd, func(w io.Writer) error { return export.WriteJSON(w, out) })
	})
}
