package monitoring

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor()

	if !m.IsHealthy() {
		t.Error("New monitor should be healthy before any run")
	}
	if got := m.StatusSummary(); got != "No searches yet" {
		t.Errorf("StatusSummary() = %q, want %q", got, "No searches yet")
	}

	m.RecordFailure(errors.New("quota exceeded"), time.Second)
	if m.IsHealthy() {
		t.Error("Monitor should be unhealthy after a failed run")
	}
	if !strings.Contains(m.StatusSummary(), "quota exceeded") {
		t.Errorf("StatusSummary() = %q, want the failure cause", m.StatusSummary())
	}

	m.RecordSuccess("ranked 4 of 6 candidates", time.Second)
	if !m.IsHealthy() {
		t.Error("Monitor should recover after a successful run")
	}

	summary := m.StatusSummary()
	if !strings.Contains(summary, "2 runs (1 failed)") {
		t.Errorf("StatusSummary() = %q, want run totals", summary)
	}
	if !strings.Contains(summary, "ranked 4 of 6 candidates") {
		t.Errorf("StatusSummary() = %q, want the last summary", summary)
	}
}
