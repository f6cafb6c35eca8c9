package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `battery:
  power_max_kw: 2
  energy_capacity_kwh: 8
  charge_efficiency: 1
  discharge_efficiency: 1
  soc_min: 0
  soc_max: 1
initial_soc: 0.5
logging:
  level: error
`

func setup(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o644))
	var b strings.Builder
	b.WriteString("spot\n")
	for i := 0; i < 5; i++ {
		b.WriteString("60\n65\n55\n70\n50\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prices.csv"), []byte(b.String()), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outPath, outFormat, scenariosPath, initialSoC = "", "json", "", 0
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	for _, c := range rootCmd.Commands() {
		if f := c.Flags().Lookup("soc"); f != nil {
			f.Changed = false
		}
		if f := c.Flags().Lookup("intraday"); f != nil {
			f.Changed = false
		}
	}
	return buf.String(), err
}

func TestDispatchCommand(t *testing.T) {
	dir := setup(t)
	out, err := execute(t, "dispatch", "-c", filepath.Join(dir, "config.yaml"), "--prices", filepath.Join(dir, "prices.csv"))
	require.NoError(t, err)

	var res struct {
		Method       string  `json:"method"`
		TotalRevenue float64 `json:"total_revenue"`
		FinalSoC     float64 `json:"final_soc"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "MILP", res.Method)
	assert.InDelta(t, 0.424, res.TotalRevenue, 1e-9)
	assert.InDelta(t, 0.55, res.FinalSoC, 1e-9)
}

func TestDispatchCommandCSVToFile(t *testing.T) {
	dir := setup(t)
	dest := filepath.Join(dir, "trajectory.csv")
	_, err := execute(t, "dispatch", "-c", filepath.Join(dir, "config.yaml"),
		"--prices", filepath.Join(dir, "prices.csv"), "-f", "csv", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 26)
}

func TestCompareCommand(t *testing.T) {
	dir := setup(t)
	out, err := execute(t, "compare", "-c", filepath.Join(dir, "config.yaml"), "--prices", filepath.Join(dir, "prices.csv"))
	require.NoError(t, err)
	var res struct {
		Order   []string                   `json:"order"`
		Methods map[string]json.RawMessage `json:"methods"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"MILP", "SDP"}, res.Order)
	assert.Len(t, res.Methods, 2)
}

func TestArbitrageCommand(t *testing.T) {
	dir := setup(t)
	out, err := execute(t, "arbitrage", "-c", filepath.Join(dir, "config.yaml"), "--spot", "50", "--intraday", "80", "--soc", "0.5")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res["run_id"])
	assert.Contains(t, res, "action")
}

func TestCommandErrors(t *testing.T) {
	dir := setup(t)
	cfg := filepath.Join(dir, "config.yaml")

	_, err := execute(t, "dispatch", "-c", cfg, "--prices", filepath.Join(dir, "prices.csv"), "-f", "xml")
	assert.Error(t, err)

	_, err = execute(t, "dispatch", "-c", cfg, "--prices", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = execute(t, "dispatch", "-c", cfg, "--prices", filepath.Join(dir, "prices.csv"), "--soc", "1.5")
	assert.Error(t, err)

	_, err = execute(t, "dispatch", "-c", filepath.Join(dir, "nope.yaml"), "--prices", filepath.Join(dir, "prices.csv"))
	assert.Error(t, err)
}
