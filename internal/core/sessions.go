package core

import "sync"

// SessionTracker is the set of chats observed so far. The dispatcher
// inserts on every message; the scheduler reads snapshots on every tick.
//
// Sessions are never evicted: a chat stays active for the process lifetime.
// For long-running deployments with high chat churn this set only grows;
// the event store's chat_seen records at least make the growth observable.
type SessionTracker struct {
	mu    sync.RWMutex
	chats map[int64]struct{}
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{chats: map[int64]struct{}{}}
}

// MarkActive inserts the chat. Idempotent; reports whether the chat was
// newly observed.
func (t *SessionTracker) MarkActive(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.chats[chatID]; ok {
		return false
	}
	t.chats[chatID] = struct{}{}
	return true
}

// Snapshot returns a copy of the current membership. Inserts racing a
// snapshot are picked up no later than the next one.
func (t *SessionTracker) Snapshot() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]int64, 0, len(t.chats))
	for id := range t.chats {
		out = append(out, id)
	}
	return out
}

func (t *SessionTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.chats)
}
