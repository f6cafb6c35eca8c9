package mqtt

import (
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/bessopt/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records setpoints in memory. It is used in tests and when the
// broker is disabled.
type MockPublisher struct {
	Setpoints  []coremqtt.Setpoint
	Fail       bool
	AckResults map[string]bool
	mu         sync.Mutex
	seq        int
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{AckResults: make(map[string]bool)}
}

// PublishSetpoint records the setpoint or returns an error if configured to fail.
func (m *MockPublisher) PublishSetpoint(sp coremqtt.Setpoint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", fmt.Errorf("publish failed")
	}
	m.seq++
	if sp.CommandID == "" {
		sp.CommandID = fmt.Sprintf("cmd-%d", m.seq)
	}
	m.Setpoints = append(m.Setpoints, sp)
	m.AckResults[sp.CommandID] = true
	return sp.CommandID, nil
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockPublisher) WaitForAck(commandID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[commandID]
	m.mu.Unlock()
	if !exists {
		return false, coremqtt.ErrUnknownCommand
	}
	return ok, nil
}

// Last returns the most recent setpoint.
func (m *MockPublisher) Last() (coremqtt.Setpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Setpoints) == 0 {
		return coremqtt.Setpoint{}, false
	}
	return m.Setpoints[len(m.Setpoints)-1], true
}
