package engine

import (
	"sync"
	"time"
)

// RunRecord is written once for every successful run
type RunRecord struct {
	RunID          string    `json:"run_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Size           int       `json:"size"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Ledger is the append-only history of successful runs. The engine is its
// only writer; readers get copies.
type Ledger struct {
	records []RunRecord
	mu      sync.RWMutex
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{records: []RunRecord{}}
}

// Append adds a record to the end of the ledger
func (l *Ledger) Append(record RunRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
}

// Records returns the ledger in completion order
func (l *Ledger) Records() []RunRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]RunRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Best returns the fastest record for a board size
func (l *Ledger) Best(size int) (RunRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var best RunRecord
	found := false
	for _, r := range l.records {
		if r.Size != size {
			continue
		}
		if !found || r.ElapsedSeconds < best.ElapsedSeconds {
			best = r
			found = true
		}
	}
	return best, found
}
