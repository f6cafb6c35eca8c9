package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bessopt/app"
	"github.com/kilianp07/bessopt/config"
	"github.com/kilianp07/bessopt/infra/logger"
)

var (
	cfgPath    string
	outPath    string
	outFormat  string
	initialSoC float64
)

var rootCmd = &cobra.Command{
	Use:           "bessopt",
	Short:         "Battery dispatch optimization and capacity sizing",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "f", "json", "output format: json or csv")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// addSoCFlag registers --soc, which overrides initial_soc from the
// configuration when set.
func addSoCFlag(c *cobra.Command) {
	c.Flags().Float64Var(&initialSoC, "soc", 0, "initial state of charge in [0,1]")
}

// withService loads the configuration, builds the service and hands both to
// fn under a signal-aware context. The metrics textfile is written after a
// successful run.
func withService(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f := cmd.Flags().Lookup("soc"); f != nil && f.Changed {
		if initialSoC < 0 || initialSoC > 1 {
			return fmt.Errorf("--soc must be in [0,1]")
		}
		cfg.InitialSoC = initialSoC
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if err := fn(ctx, cfg, svc); err != nil {
		return err
	}
	return svc.WriteTextfile()
}

// output writes through fn to --output or the command's stdout.
func output(cmd *cobra.Command, fn func(w io.Writer) error) error {
	if outPath == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func checkFormat() error {
	switch outFormat {
	case "json", "csv":
		return nil
	}
	return fmt.Errorf("unknown output format %q", outFormat)
}

