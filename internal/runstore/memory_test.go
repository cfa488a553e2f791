package runstore

import (
	"context"
	"testing"
	"time"
)

func TestMemStore_SaveGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	r := RunReport{RunID: "run-1", Mode: "por", StartedAt: time.Now(), FinishedAt: time.Now(), ControlState: 4, Transitions: 3}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ControlState != 4 || got.Transitions != 3 {
		t.Fatalf("unexpected report: %+v", got)
	}

	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Save is idempotent: overwrite run-1 rather than erroring.
	r.ControlState = 5
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save (overwrite): %v", err)
	}
	got, _ = s.Get(ctx, "run-1")
	if got.ControlState != 5 {
		t.Fatalf("expected overwrite to take effect, got %d", got.ControlState)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 report, got %d", len(list))
	}
}
