package session

import "sync"

// Target is the single monitored group. At most one group is monitored at
// a time; setting a new target replaces the old one atomically.
type Target struct {
	GroupID string
	Active  bool
}

// Monitor owns the monitor target. Written by the command layer, read by
// the notification dispatcher on every notification.
type Monitor struct {
	mu     sync.RWMutex
	target Target
}

// NewMonitor starts with no active target.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Set replaces the monitored group.
func (m *Monitor) Set(groupID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = Target{GroupID: groupID, Active: true}
}

// Clear stops monitoring.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = Target{}
}

// Current returns a snapshot of the target.
func (m *Monitor) Current() Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.target
}
