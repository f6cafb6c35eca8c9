// Package series reads market price series and load profiles from CSV files.
//
// Price files carry a header with a mandatory spot column and optional
// intraday and grid_service columns. Load files carry timestamp (RFC 3339)
// and load_kw columns with a constant sampling interval.
package series

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/bessopt/core/model"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// ReadSnapshots parses one MarketSnapshot per CSV row.
func ReadSnapshots(r io.Reader) ([]model.MarketSnapshot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := index(header)
	spot, ok := cols["spot"]
	if !ok {
		return nil, fmt.Errorf("%w: spot", ErrMissingColumn)
	}
	intraday, hasIntraday := cols["intraday"]
	grid, hasGrid := cols["grid_service"]

	var out []model.MarketSnapshot
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var s model.MarketSnapshot
		if s.Spot, err = parse(rec, spot); err != nil {
			return nil, fmt.Errorf("line %d spot: %w", line, err)
		}
		if hasIntraday {
			if s.Intraday, err = parse(rec, intraday); err != nil {
				return nil, fmt.Errorf("line %d intraday: %w", line, err)
			}
		}
		if hasGrid {
			if s.GridService, err = parse(rec, grid); err != nil {
				return nil, fmt.Errorf("line %d grid_service: %w", line, err)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadLoadProfile parses timestamped load samples. The interval is taken
// from the first two rows and must hold for the whole file.
func ReadLoadProfile(r io.Reader) (model.LoadProfile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return model.LoadProfile{}, fmt.Errorf("read header: %w", err)
	}
	cols := index(header)
	tsCol, ok := cols["timestamp"]
	if !ok {
		return model.LoadProfile{}, fmt.Errorf("%w: timestamp", ErrMissingColumn)
	}
	loadCol, ok := cols["load_kw"]
	if !ok {
		return model.LoadProfile{}, fmt.Errorf("%w: load_kw", ErrMissingColumn)
	}

	var (
		p    model.LoadProfile
		prev time.Time
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return p, fmt.Errorf("line %d: %w", line, err)
		}
		if tsCol >= len(rec) {
			return p, fmt.Errorf("line %d: %w: timestamp", line, ErrMissingColumn)
		}
		ts, err := time.Parse(time.RFC3339, rec[tsCol])
		if err != nil {
			return p, fmt.Errorf("line %d timestamp: %w", line, err)
		}
		load, err := parse(rec, loadCol)
		if err != nil {
			return p, fmt.Errorf("line %d load_kw: %w", line, err)
		}
		switch len(p.Samples) {
		case 0:
			p.Start = ts
		case 1:
			p.Interval = ts.Sub(prev)
			if p.Interval <= 0 {
				return p, fmt.Errorf("line %d: timestamps must increase", line)
			}
		default:
			if ts.Sub(prev) != p.Interval {
				return p, fmt.Errorf("line %d: interval %s differs from %s", line, ts.Sub(prev), p.Interval)
			}
		}
		p.Samples = append(p.Samples, load)
		prev = ts
	}
	if len(p.Samples) == 1 {
		p.Interval = time.Hour
	}
	return p, nil
}

// ReadScenarios decodes a JSON array of scenarios.
func ReadScenarios(r io.Reader) ([]model.MarketScenario, error) {
	var scs []model.MarketScenario
	if err := json.NewDecoder(r).Decode(&scs); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	return scs, nil
}

// OpenSnapshots reads a price CSV file.
func OpenSnapshots(path string) ([]model.MarketSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshots(f)
}

// OpenLoadProfile reads a load CSV file.
func OpenLoadProfile(path string) (model.LoadProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.LoadProfile{}, err
	}
	defer f.Close()
	return ReadLoadProfile(f)
}

// OpenScenarios reads a scenario JSON file.
func OpenScenarios(path string) ([]model.MarketScenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScenarios(f)
}

func index(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func parse(rec []string, col int) (float64, error) {
	if col >= len(rec) {
		return 0, ErrMissingColumn
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
}
