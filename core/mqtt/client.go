// Package mqtt defines how dispatch setpoints leave the engine.
package mqtt

import "time"

// Setpoint is the command sent to a site controller for the next interval.
type Setpoint struct {
	CommandID       string  `json:"command_id"`
	RunID           string  `json:"run_id"`
	SiteID          string  `json:"site_id"`
	Kind            string  `json:"kind"`
	Market          string  `json:"market"`
	PowerKW         float64 `json:"power_kw"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	Timestamp       int64   `json:"timestamp"`
}

// Publisher sends setpoints and waits for the controller acknowledgment.
type Publisher interface {
	// PublishSetpoint sends sp to the site topic and returns the command
	// identifier used to track the acknowledgment.
	PublishSetpoint(sp Setpoint) (commandID string, err error)

	// WaitForAck waits for an acknowledgment for the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}
