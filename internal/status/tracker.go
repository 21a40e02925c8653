package status

import (
	"sync"
	"time"

	"autodraft.app/assistant/internal/gate"
)

// Snapshot is what the status endpoint reports about the daemon.
type Snapshot struct {
	Runs      int             `json:"runs"`
	Failures  int             `json:"failures"`
	LastError string          `json:"last_error,omitempty"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	LastRun   *gate.RunReport `json:"last_run,omitempty"`
}

// Tracker remembers the latest run. The scheduler writes it and HTTP handlers
// read it concurrently.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records the result of one run. A failed run keeps the previous report.
func (t *Tracker) Observe(report *gate.RunReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.snap.Runs++
	t.snap.LastRunAt = &now
	if err != nil {
		t.snap.Failures++
		t.snap.LastError = err.Error()
		return
	}
	t.snap.LastError = ""
	t.snap.LastRun = report
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
