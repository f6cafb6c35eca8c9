package model

// ActionKind is the direction of a dispatch action.
type ActionKind int

const (
	ActionIdle ActionKind = iota
	ActionCharge
	ActionDischarge
)

// String returns a human-readable representation of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionIdle:
		return "idle"
	case ActionCharge:
		return "charge"
	case ActionDischarge:
		return "discharge"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// DispatchAction is the decision taken for one time step. PowerKW is always a
// magnitude; the direction is given by Kind. SoCDelta is signed.
type DispatchAction struct {
	Kind     ActionKind `json:"kind"`
	Market   Market     `json:"market"`
	PowerKW  float64    `json:"power_kw"`
	SoCDelta float64    `json:"soc_delta"`
}

// Idle returns an idle action.
func Idle() DispatchAction { return DispatchAction{Kind: ActionIdle, Market: MarketSpot} }

// TrajectoryStep records one applied action.
type TrajectoryStep struct {
	Step      int            `json:"step"`
	Action    DispatchAction `json:"action"`
	SoCBefore float64        `json:"soc_before"`
	SoCAfter  float64        `json:"soc_after"`
	Revenue   float64        `json:"revenue"`
}

// DispatchTrajectory is the ordered list of steps produced by a dispatch run.
type DispatchTrajectory []TrajectoryStep

// TotalRevenue sums the revenue of every step.
func (t DispatchTrajectory) TotalRevenue() float64 {
	var sum float64
	for _, s := range t {
		sum += s.Revenue
	}
	return sum
}

// DispatchResult is the output of a dispatch strategy.
type DispatchResult struct {
	RunID        string             `json:"run_id"`
	Method       string             `json:"method"`
	Trajectory   DispatchTrajectory `json:"trajectory"`
	TotalRevenue float64            `json:"total_revenue"`
	FinalSoC     float64            `json:"final_soc"`
	// ValueFunction is indexed by time step then SoC grid point. Only the
	// stochastic optimizer fills it.
	ValueFunction [][]float64 `json:"value_function,omitempty"`
	SoCGrid       []float64   `json:"soc_grid,omitempty"`
}
