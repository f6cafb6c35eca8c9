package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bessopt/core/model"
)

func TestReadSnapshots(t *testing.T) {
	data := "spot,intraday,grid_service\n60,62,25\n65, 61.5,10\n"
	snaps, err := ReadSnapshots(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []model.MarketSnapshot{
		{Spot: 60, Intraday: 62, GridService: 25},
		{Spot: 65, Intraday: 61.5, GridService: 10},
	}, snaps)

	snaps, err = ReadSnapshots(strings.NewReader("Spot\n1\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, model.SpotSeries(snaps))
}

func TestReadSnapshotsErrors(t *testing.T) {
	_, err := ReadSnapshots(strings.NewReader("intraday\n1\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadSnapshots(strings.NewReader("spot\nabc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadSnapshots(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadLoadProfile(t *testing.T) {
	data := "timestamp,load_kw\n" +
		"2023-01-01T00:00:00Z,800\n" +
		"2023-01-01T00:15:00Z,820.5\n" +
		"2023-01-01T00:30:00Z,790\n"
	p, err := ReadLoadProfile(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, 15*time.Minute, p.Interval)
	assert.Equal(t, []float64{800, 820.5, 790}, p.Samples)
}

func TestReadLoadProfileErrors(t *testing.T) {
	tests := map[string]string{
		"missing load":    "timestamp\n2023-01-01T00:00:00Z\n",
		"bad timestamp":   "timestamp,load_kw\nyesterday,1\n",
		"irregular":       "timestamp,load_kw\n2023-01-01T00:00:00Z,1\n2023-01-01T01:00:00Z,1\n2023-01-01T01:30:00Z,1\n",
		"decreasing time": "timestamp,load_kw\n2023-01-01T01:00:00Z,1\n2023-01-01T00:00:00Z,1\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadLoadProfile(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	prices := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(prices, []byte("spot\n10\n"), 0o644))
	snaps, err := OpenSnapshots(prices)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	scenarios := filepath.Join(dir, "scenarios.json")
	require.NoError(t, os.WriteFile(scenarios, []byte(`[{"id":"a","probability":1,"spot":[1,2]}]`), 0o644))
	scs, err := OpenScenarios(scenarios)
	require.NoError(t, err)
	require.Len(t, scs, 1)
	assert.Equal(t, []float64{1, 2}, scs[0].Spot)

	_, err = OpenLoadProfile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
