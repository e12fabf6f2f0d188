package service

import "sync/atomic"

// LatestOnly sequences overlapping recomputations so that only the most
// recently started one is surfaced. Each caller takes a ticket with Begin
// and publishes its result only if Current still holds that ticket.
type LatestOnly struct {
	generation atomic.Uint64
}

// Begin starts a new generation and returns its ticket. Older tickets
// become stale.
func (l *LatestOnly) Begin() uint64 {
	return l.generation.Add(1)
}

// Current reports whether ticket belongs to the newest generation.
func (l *LatestOnly) Current(ticket uint64) bool {
	return l.generation.Load() == ticket
}
