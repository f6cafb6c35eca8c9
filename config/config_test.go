package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `battery:
  power_max_kw: 100
  energy_capacity_kwh: 400
  charge_efficiency: 0.95
  discharge_efficiency: 0.95
  soc_min: 0.1
  soc_max: 0.9
initial_soc: 0.4
optimization:
  time_horizon_hours: 12
market:
  spread_threshold: 8
scenario:
  count: 20
  seed: 7
sizing:
  space:
    power_min_kw: 100
    power_max_kw: 200
    power_step_kw: 50
    capacity_min_kwh: 200
    capacity_max_kwh: 400
    capacity_step_kwh: 100
strategy:
  type: stochastic
  conf:
    discount: 0.9
metrics:
  sinks:
    - type: nop
mqtt:
  broker: "tcp://localhost:1883"
  site_id: plant1
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.Battery.PowerMaxKW)
	assert.Equal(t, 0.4, cfg.InitialSoC)
	assert.Equal(t, 12, cfg.Optimization.TimeHorizonHours)
	assert.Equal(t, 15, cfg.Optimization.TimeStepMinutes, "default kept")
	assert.Equal(t, 8.0, cfg.Market.SpreadThreshold)
	assert.Equal(t, 0.8, cfg.Market.ArbitragePowerFraction, "default kept")
	assert.Equal(t, 20, cfg.Scenario.Count)
	assert.Equal(t, uint64(7), cfg.Scenario.Seed)
	assert.Equal(t, 0.1, cfg.Scenario.Volatility)
	assert.Equal(t, 50.0, cfg.Sizing.Space.PowerStepKW)
	assert.Equal(t, 0.95, cfg.Sizing.Constraints.LimitPercentile)
	assert.Equal(t, "stochastic", cfg.Strategy.Type)
	assert.Equal(t, 0.9, cfg.Strategy.Conf["discount"])
	require.Len(t, cfg.Metrics.Sinks, 1)
	assert.Equal(t, "nop", cfg.Metrics.Sinks[0].Type)
	assert.Equal(t, "plant1", cfg.MQTT.SiteID)
	assert.Equal(t, "bess/+/ack", cfg.MQTT.AckTopic)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
	assert.Equal(t, 2.5, cfg.Arbitrage.ReserveMultiplier)
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	path := writeFile(t, "config.json", `{"battery":{"power_max_kw":50,"energy_capacity_kwh":100},"timeout_seconds":5}`)
	t.Setenv("K_BATTERY__POWER_MAX_KW", "75")
	t.Setenv("K_LOGGING__LEVEL", "warn")
	t.Setenv("K_MARKET__SPREAD_THRESHOLD", "7")
	t.Setenv("K_TIMEOUT_SECONDS", "9")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Battery.PowerMaxKW)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 9, cfg.TimeoutSeconds)
	assert.Equal(t, 7.0, cfg.Market.SpreadThreshold)
	assert.Equal(t, 0.8, cfg.Market.ArbitragePowerFraction, "sibling default kept")
	assert.Equal(t, "heuristic", cfg.Strategy.Type)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"unsupported", "config.toml", "a = 1"},
		{"bad level", "config.yaml", "logging:\n  level: loud\n"},
		{"bad step", "config.yaml", "optimization:\n  time_step_minutes: 7\n"},
		{"bad discount", "config.yaml", "market:\n  discount: 2\n"},
		{"bad timeout", "config.yaml", "timeout_seconds: -1\n"},
		{"mqtt without broker", "config.yaml", "mqtt:\n  enabled: true\n"},
		{"bad sample rate", "config.yaml", "monitoring:\n  traces_sample_rate: 3\n"},
		{"bad percentile", "config.yaml", "sizing:\n  constraints:\n    limit_percentile: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
