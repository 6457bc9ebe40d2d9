package monitoring

import (
	"sync"
	"time"
)

// Stats is a point-in-time view of the conversations handled so far
type Stats struct {
	Conversations     int             `json:"conversations"`
	SuccessfulOrders  int             `json:"successful_orders"`
	SuccessRate       float64         `json:"success_rate"`
	TotalErrors       int             `json:"total_errors"`
	AverageOrderValue float64         `json:"average_order_value"`
	Scenarios         map[string]bool `json:"scenarios,omitempty"`
	UptimeSeconds     float64         `json:"uptime_seconds"`
}

// Monitor collects session statistics across conversations
type Monitor struct {
	mu            sync.RWMutex
	conversations int
	successful    int
	errors        int
	revenue       float64
	scenarios     map[string]bool
	startTime     time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		scenarios: make(map[string]bool),
		startTime: time.Now(),
	}
}

// RecordConversation records a finished conversation. Only successful
// orders contribute to the average order value.
func (m *Monitor) RecordConversation(success bool, total float64, errors int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conversations++
	m.errors += errors
	if success {
		m.successful++
		m.revenue += total
	}
}

// RecordScenario records the outcome of an evaluation scenario
func (m *Monitor) RecordScenario(id string, passed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[id] = passed
}

// Snapshot returns the current statistics
func (m *Monitor) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Conversations:    m.conversations,
		SuccessfulOrders: m.successful,
		TotalErrors:      m.errors,
		UptimeSeconds:    time.Since(m.startTime).Seconds(),
	}
	if m.conversations > 0 {
		s.SuccessRate = float64(m.successful) / float64(m.conversations)
	}
	if m.successful > 0 {
		s.AverageOrderValue = m.revenue / float64(m.successful)
	}
	if len(m.scenarios) > 0 {
		s.Scenarios = make(map[string]bool, len(m.scenarios))
		for k, v := range m.scenarios {
			s.Scenarios[k] = v
		}
	}
	return s
}

// Reset clears all statistics
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations, m.successful, m.errors, m.revenue = 0, 0, 0, 0
	m.scenarios = make(map[string]bool)
}
