package client

import "sync"

const defaultLedgerCapacity = 100

// Ledger remembers recently processed message ids. A message can
// legitimately arrive twice (ack plus broadcast, or a resync overlapping a
// live broadcast), so the first caller of ShouldProcess wins and everyone
// else discards.
//
// The ledger is bounded: past capacity it evicts the oldest half in one go,
// which amortizes eviction. An evicted id can in principle be re-admitted,
// but a true duplicate that old is vanishingly unlikely.
type Ledger struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	capacity int
}

func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = defaultLedgerCapacity
	}
	return &Ledger{
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// ShouldProcess marks the id as seen and reports whether this is the first
// sighting. One atomic check-and-set, no separate "mark" step.
func (l *Ledger) ShouldProcess(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[messageID]; ok {
		return false
	}
	l.seen[messageID] = struct{}{}
	l.order = append(l.order, messageID)
	if len(l.order) > l.capacity {
		half := len(l.order) / 2
		for _, old := range l.order[:half] {
			delete(l.seen, old)
		}
		l.order = append(l.order[:0:0], l.order[half:]...)
	}
	return true
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
