package memory

import (
	"testing"
	"time"
)

func TestAcquireWithinBudgetSucceeds(t *testing.T) {
	b := NewBroker(1024)
	defer b.Close()
	if !b.Acquire(512) {
		t.Fatal("expected acquire within budget to succeed")
	}
	b.Release(512)
}

func TestAcquireEvictsTrackedItems(t *testing.T) {
	b := NewBroker(1000)
	defer b.Close()

	evicted := false
	b.Track(Item{
		Owner: "old-item",
		Size:  900,
		Cleanup: func(owner any) {
			evicted = true
		},
		GetLastUsed: func(owner any) time.Time {
			return time.Now().Add(-time.Hour)
		},
	})

	if !b.Acquire(900) {
		t.Fatal("expected acquire to evict the tracked item and succeed")
	}
	if !evicted {
		t.Fatal("expected tracked item to be evicted under pressure")
	}
}

func TestAcquireDeniedWhenNothingToEvict(t *testing.T) {
	b := NewBroker(100)
	defer b.Close()
	if b.Acquire(10000) {
		t.Fatal("expected acquire far beyond budget with no evictable items to fail")
	}
	if b.Used() != 0 {
		t.Fatalf("expected used to roll back to 0 on denial, got %d", b.Used())
	}
}

func TestUntrackPreventsCleanupCall(t *testing.T) {
	b := NewBroker(1000)
	defer b.Close()

	called := false
	item := Item{
		Owner:       "item",
		Size:        100,
		Cleanup:     func(owner any) { called = true },
		GetLastUsed: func(owner any) time.Time { return time.Now() },
	}
	b.Track(item)
	b.Untrack("item")
	b.Acquire(1000)
	if called {
		t.Fatal("untracked item must not be evicted")
	}
}

func TestParseBudget(t *testing.T) {
	n, err := ParseBudget("1MiB")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1024*1024 {
		t.Fatalf("expected 1048576 bytes, got %d", n)
	}
}
