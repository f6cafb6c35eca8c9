package metrics

import "time"

// RunEvent describes one dispatch strategy run.
type RunEvent struct {
	RunID    string
	Method   string
	Steps    int
	Revenue  float64
	FinalSoC float64
	Success  bool
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records dispatch runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// SizingEvent summarizes a sizing search.
type SizingEvent struct {
	RunID        string
	Evaluated    int
	Rejected     int
	Feasible     int
	PowerKW      float64
	CapacityKWh  float64
	ROIPercent   float64
	PaybackYears float64
	Duration     time.Duration
	Time         time.Time
}

// SizingRecorder records sizing searches.
type SizingRecorder interface {
	RecordSizing(ev SizingEvent) error
}

// DecisionEvent captures a real-time arbitrage decision.
type DecisionEvent struct {
	RunID           string
	Kind            string
	Market          string
	PowerKW         float64
	Spread          float64
	ExpectedRevenue float64
	Time            time.Time
}

// DecisionRecorder records arbitrage decisions.
type DecisionRecorder interface {
	RecordDecision(ev DecisionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error           { return nil }
func (NopSink) RecordSizing(SizingEvent) error     { return nil }
func (NopSink) RecordDecision(DecisionEvent) error { return nil }
