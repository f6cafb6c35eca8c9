package model

// Market identifies where an action is valued.
type Market int

const (
	MarketSpot Market = iota
	MarketIntraday
	MarketGridService
	MarketReserve
)

// String returns the market name used in logs and exports.
func (m Market) String() string {
	switch m {
	case MarketSpot:
		return "spot"
	case MarketIntraday:
		return "intraday"
	case MarketGridService:
		return "grid_service"
	case MarketReserve:
		return "reserve"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Market) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// MarketSnapshot holds the prices observed for a single time step.
// Prices are in currency per MWh.
type MarketSnapshot struct {
	Spot        float64 `json:"spot"`
	Intraday    float64 `json:"intraday"`
	GridService float64 `json:"grid_service"`
}

// MarketScenario is one probability-weighted realization of future prices.
// Each series holds one value per time step of the horizon.
type MarketScenario struct {
	ID          string    `json:"id"`
	Probability float64   `json:"probability"`
	Spot        []float64 `json:"spot"`
	Intraday    []float64 `json:"intraday,omitempty"`
	GridService []float64 `json:"grid_service,omitempty"`
}

// SpotSeries extracts the spot prices of the snapshots.
func SpotSeries(snaps []MarketSnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.Spot
	}
	return out
}

// IntradaySeries extracts the intraday prices of the snapshots.
func IntradaySeries(snaps []MarketSnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.Intraday
	}
	return out
}

// GridServiceSeries extracts the grid-service prices of the snapshots.
func GridServiceSeries(snaps []MarketSnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.GridService
	}
	return out
}
