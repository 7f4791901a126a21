package paper

import (
	"sync"

	"prosperity-go/internal/execution"
)

// Ledger stores fills in memory for quick inspection.
type Ledger struct {
	mu    sync.Mutex
	fills []execution.Fill
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{fills: make([]execution.Fill, 0, capacity)}
}

// Record appends a fill to the ledger.
func (l *Ledger) Record(fill execution.Fill) {
	l.mu.Lock()
	l.fills = append(l.fills, fill)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded fills.
func (l *Ledger) Snapshot() []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Volume sums filled units per symbol and side.
func (l *Ledger) Volume() map[string]map[execution.Side]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]map[execution.Side]int)
	for _, f := range l.fills {
		bySide := out[f.Symbol]
		if bySide == nil {
			bySide = make(map[execution.Side]int, 2)
			out[f.Symbol] = bySide
		}
		bySide[f.Side] += f.Qty
	}
	return out
}

// Reset clears all stored fills.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.fills = l.fills[:0]
	l.mu.Unlock()
}

// MultiRecorder fans a fill out to several recorders.
type MultiRecorder []FillRecorder

// Record forwards fill to every non-nil recorder.
func (m MultiRecorder) Record(fill execution.Fill) {
	for _, r := range m {
		if r != nil {
			r.Record(fill)
		}
	}
}
