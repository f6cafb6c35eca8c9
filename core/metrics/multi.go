package metrics

import "errors"

// MultiSink fans events out to several sinks. Sinks that do not implement
// an optional recorder are skipped for that event.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to every sink and joins their errors.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordRun(ev))
	}
	return errors.Join(errs...)
}

// RecordSizing forwards the event to the sinks that record sizing searches.
func (m *MultiSink) RecordSizing(ev SizingEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(SizingRecorder); ok {
			errs = append(errs, r.RecordSizing(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordDecision forwards the event to the sinks that record decisions.
func (m *MultiSink) RecordDecision(ev DecisionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(DecisionRecorder); ok {
			errs = append(errs, r.RecordDecision(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds a connection.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
