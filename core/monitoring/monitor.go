// Package monitoring defines how engine failures are reported to an error
// tracker.
package monitoring

import "time"

// Monitor reports errors and panics.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred. It reports a panic and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// OrNop returns m, or a NopMonitor when m is nil.
func OrNop(m Monitor) Monitor {
	if m == nil {
		return NopMonitor{}
	}
	return m
}
