package services

import (
	"sync"
	"time"
)

const (
	corruptionWindow    = time.Minute
	corruptionThreshold = 3
)

// corruptionMonitor counts corrupt-session reads inside a sliding window so
// a persistently broken secure store is escalated instead of silently
// healed over and over.
type corruptionMonitor struct {
	mu   sync.Mutex
	hits []time.Time
	now  func() time.Time
}

func newCorruptionMonitor(now func() time.Time) *corruptionMonitor {
	return &corruptionMonitor{now: now}
}

// record notes one corruption and reports how many fall inside the window.
func (m *corruptionMonitor) record() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-corruptionWindow)
	kept := m.hits[:0]
	for _, t := range m.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.hits = append(kept, now)
	return len(m.hits)
}
