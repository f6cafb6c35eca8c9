package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/bessopt/core/arbitrage"
	"github.com/kilianp07/bessopt/core/factory"
	"github.com/kilianp07/bessopt/core/metrics"
	"github.com/kilianp07/bessopt/core/model"
	"github.com/kilianp07/bessopt/core/optimize"
	"github.com/kilianp07/bessopt/core/scenario"
	"github.com/kilianp07/bessopt/core/sizing"
	"github.com/kilianp07/bessopt/infra/monitoring"
	"github.com/kilianp07/bessopt/infra/mqtt"
)

type Config struct {
	Battery      model.BatteryCapability      `json:"battery"`
	InitialSoC   float64                      `json:"initial_soc"`
	Optimization model.OptimizationParameters `json:"optimization"`
	Market       optimize.Config              `json:"market"`
	Scenario     scenario.Config              `json:"scenario"`
	Sizing       SizingConfig                 `json:"sizing"`
	Arbitrage    arbitrage.Config             `json:"arbitrage"`
	Strategy     factory.ModuleConfig         `json:"strategy"`
	Metrics      metrics.Config               `json:"metrics"`
	MQTT         mqtt.Config                  `json:"mqtt"`
	Logging      LoggingConfig                `json:"logging"`
	Monitoring   monitoring.Config            `json:"monitoring"`
	// TimeoutSeconds bounds every engine call made by the application.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SizingConfig groups the sizing search inputs.
type SizingConfig struct {
	Space       sizing.SearchSpace `json:"space"`
	Constraints sizing.Constraints `json:"constraints"`
}

// Default returns the configuration used for every field the file and the
// environment leave unset.
func Default() Config {
	cfg := Config{
		InitialSoC:     0.5,
		Optimization:   model.DefaultParameters(),
		Market:         optimize.DefaultConfig(),
		Sizing:         SizingConfig{Constraints: sizing.DefaultConstraints()},
		Arbitrage:      arbitrage.DefaultConfig(),
		Strategy:       factory.ModuleConfig{Type: "heuristic"},
		TimeoutSeconds: 30,
	}
	cfg.Scenario.SetDefaults()
	cfg.Logging.SetDefaults()
	return cfg
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_BATTERY__POWER_MAX_KW sets battery.power_max_kw) and validates the
// result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Optimization.SetDefaults()
	cfg.Scenario.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section that has no command-specific meaning. The
// battery and the sizing search space are checked by the commands that use
// them.
func (c Config) Validate() error {
	if err := c.Optimization.Validate(); err != nil {
		return err
	}
	if err := c.Market.Validate(); err != nil {
		return fmt.Errorf("market: %w", err)
	}
	if err := c.Scenario.Validate(); err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	if err := c.Sizing.Constraints.Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}
	if c.InitialSoC < 0 || c.InitialSoC > 1 {
		return fmt.Errorf("initial_soc must be in [0,1]")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Monitoring.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Timeout returns TimeoutSeconds as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
