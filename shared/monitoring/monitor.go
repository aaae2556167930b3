package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Monitor tracks search-run outcomes for the health endpoint.
type Monitor struct {
	mu             sync.Mutex
	totalRuns      int
	failedRuns     int
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRuns++
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary

	log.Printf("Search run completed - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRuns++
	m.failedRuns++
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()

	log.Printf("Search run FAILED: %v (took %v)", err, duration)
}

// IsHealthy reports whether the last run succeeded. No runs yet counts as
// healthy.
func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true
	}
	return m.lastRunSuccess
}

func (m *Monitor) StatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No searches yet"
	}

	state := "ok"
	if !m.lastRunSuccess {
		state = "failed"
	}
	return fmt.Sprintf("%d runs (%d failed), last %s at %s: %s",
		m.totalRuns, m.failedRuns, state, m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
