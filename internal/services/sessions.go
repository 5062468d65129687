package services

import "sync"

// SessionTracker is a concurrency-safe set of distinct session identifiers.
// It feeds a gauge only; nothing branches on it.
type SessionTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSessionTracker returns an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{seen: make(map[string]struct{})}
}

// Observe records id and returns the number of distinct identifiers seen.
// Empty identifiers are ignored.
func (t *SessionTracker) Observe(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != "" {
		t.seen[id] = struct{}{}
	}
	return len(t.seen)
}

// Count returns the number of distinct identifiers seen.
func (t *SessionTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
