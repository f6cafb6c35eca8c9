package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bessopt/app"
	"github.com/kilianp07/bessopt/config"
	"github.com/kilianp07/bessopt/pkg/export"
	"github.com/kilianp07/bessopt/pkg/series"
)

var loadPath string

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Search the power and capacity grid for the best peak-shaving ROI",
	RunE:  runSize,
}

func init() {
	sizeCmd.Flags().StringVar(&loadPath, "load", "", "load profile CSV with timestamp and load_kw columns")
	_ = sizeCmd.MarkFlagRequired("load")
	rootCmd.AddCommand(sizeCmd)
}

func runSize(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(); err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, _ *config.Config, svc *app.Service) error {
		profile, err := series.OpenLoadProfile(loadPath)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		res, err := svc.Size(ctx, profile)
		if err != nil {
			return err
		}
		return output(cmd, func(w io.Writer) error {
			if outFormat == "csv" {
				return export.WriteHeatmapCSV(w, res.Heatmap)
			}
			return export.WriteJSON(w, res)
		})
	})
}
