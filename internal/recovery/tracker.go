package recovery

import (
	"sync"
	"time"
)

// Tracker counts failures per kind for a single session
type Tracker struct {
	mu       sync.Mutex
	counts   map[Kind]int
	lastSeen map[Kind]time.Time
	now      func() time.Time
}

// Stats is a snapshot of a tracker
type Stats struct {
	TotalErrors     int                `json:"total_errors"`
	ByKind          map[string]int     `json:"error_counts"`
	LastSeenSeconds map[string]float64 `json:"last_errors"`
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		counts:   make(map[Kind]int),
		lastSeen: make(map[Kind]time.Time),
		now:      time.Now,
	}
}

// Record counts one occurrence of kind
func (t *Tracker) Record(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[kind]++
	t.lastSeen[kind] = t.now()
}

// Count returns how many times kind has been recorded
func (t *Tracker) Count(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[kind]
}

// Total returns the number of recorded failures across all kinds
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Stats returns totals, per-kind counts and seconds since each kind was last seen
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	stats := Stats{
		ByKind:          make(map[string]int, len(t.counts)),
		LastSeenSeconds: make(map[string]float64, len(t.lastSeen)),
	}
	for kind, n := range t.counts {
		stats.TotalErrors += n
		stats.ByKind[string(kind)] = n
	}
	for kind, at := range t.lastSeen {
		stats.LastSeenSeconds[string(kind)] = now.Sub(at).Seconds()
	}
	return stats
}

// Reset clears all counters
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[Kind]int)
	t.lastSeen = make(map[Kind]time.Time)
}
