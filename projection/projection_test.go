package projection

import (
	"testing"
	"time"

	"controlroom/pkg/api/watchtower"
)

func event(id, status string) watchtower.StatusEvent {
	return watchtower.StatusEvent{
		EntityID:  id,
		Kind:      watchtower.KindExecution,
		Status:    status,
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestApply_LastReceivedWins(t *testing.T) {
	p := New()

	// Receive order "Running" then "Completed", regardless of send order.
	p.Apply(event("e-1", "Running"))
	p.Apply(event("e-1", "Completed"))

	got, ok := p.Get("e-1")
	if !ok || got.Status != "Completed" {
		t.Fatalf("expected Completed, got %+v (ok=%v)", got, ok)
	}
	if p.Len() != 1 {
		t.Fatalf("same entity must occupy one slot, got %d", p.Len())
	}
}

func TestApply_AssignsMonotonicSeq(t *testing.T) {
	p := New()

	var last uint64
	for _, id := range []string{"a", "b", "a", "c"} {
		stored := p.Apply(event(id, "Running"))
		if stored.Seq <= last {
			t.Fatalf("seq not monotonic: %d after %d", stored.Seq, last)
		}
		last = stored.Seq
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	p := New()
	p.Apply(event("e-1", "Running"))

	snap := p.Snapshot()
	snap["e-1"] = event("e-1", "tampered")

	got, _ := p.Get("e-1")
	if got.Status != "Running" {
		t.Fatal("mutating a snapshot must not affect the projection")
	}
}

func TestClear(t *testing.T) {
	p := New()
	p.Apply(event("e-1", "Running"))
	p.Apply(event("e-2", "Running"))
	p.Clear()

	if p.Len() != 0 {
		t.Fatalf("expected empty projection, got %d entries", p.Len())
	}
	if _, ok := p.Get("e-1"); ok {
		t.Fatal("cleared entry still readable")
	}
}
