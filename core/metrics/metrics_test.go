package metrics

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bessopt/core/factory"
)

type recordSink struct {
	runs   int
	sizing int
	err    error
}

func (r *recordSink) RecordRun(RunEvent) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordSizing(SizingEvent) error {
	r.sizing++
	return r.err
}

// runOnly implements MetricsSink and nothing else.
type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunEvent) error { r.runs++; return nil }

func TestMultiSinkForwards(t *testing.T) {
	s1, s2, s3 := &recordSink{}, &recordSink{}, &runOnly{}
	m := NewMultiSink(s1, s2, s3)
	require.NoError(t, m.RecordRun(RunEvent{Method: "MILP"}))
	require.NoError(t, m.RecordSizing(SizingEvent{}))
	require.NoError(t, m.RecordDecision(DecisionEvent{}))
	assert.Equal(t, 1, s1.runs)
	assert.Equal(t, 1, s2.sizing)
	assert.Equal(t, 1, s3.runs)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordSink{}
	m := NewMultiSink(&recordSink{err: boom}, ok)
	err := m.RecordRun(RunEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.runs, "later sinks still receive the event")
}

func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"sinks":[{"type":"nop"},{"type":"nop"}]}`), &cfg))
	s, err = NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	m, ok := s.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	assert.Error(t, err)
	assert.Contains(t, SinkTypes(), "nop")
}
