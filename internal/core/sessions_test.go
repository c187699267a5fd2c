package core

import (
	"sync"
	"testing"
)

func TestSessionTrackerIdempotent(t *testing.T) {
	t.Parallel()
	tr := NewSessionTracker()

	if !tr.MarkActive(10) {
		t.Fatal("first insert should report newly observed")
	}
	if tr.MarkActive(10) {
		t.Fatal("repeat insert should not report newly observed")
	}
	if tr.Len() != 1 {
		t.Fatalf("Len = %d", tr.Len())
	}
}

func TestSessionTrackerSnapshotIsolation(t *testing.T) {
	t.Parallel()
	tr := NewSessionTracker()
	tr.MarkActive(1)
	tr.MarkActive(2)

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot = %v", snap)
	}

	// Mutating the snapshot must not touch the tracker.
	snap[0] = 999
	tr.MarkActive(3)
	got := map[int64]bool{}
	for _, id := range tr.Snapshot() {
		got[id] = true
	}
	if !got[1] || !got[2] || !got[3] || got[999] {
		t.Fatalf("membership corrupted: %v", got)
	}
}

func TestSessionTrackerConcurrent(t *testing.T) {
	t.Parallel()
	tr := NewSessionTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				tr.MarkActive(base*100 + j)
				_ = tr.Snapshot()
			}
		}(int64(i))
	}
	wg.Wait()

	if tr.Len() != 800 {
		t.Fatalf("Len = %d, want 800", tr.Len())
	}
}
