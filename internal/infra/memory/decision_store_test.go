package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"dilemma-survey-service/internal/domain"
)

func TestDecisionStoreUniquePerUserAndDilemma(t *testing.T) {
	ctx := context.Background()
	store := NewDecisionStore()

	first, err := store.Create(ctx, domain.Decision{UserID: 1, DilemmaID: 1, InitialChoice: "A", InitialAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("expected an id to be assigned")
	}
	if _, err := store.Create(ctx, domain.Decision{UserID: 1, DilemmaID: 1, InitialChoice: "B"}); !errors.Is(err, domain.ErrAlreadyParticipated) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := store.Create(ctx, domain.Decision{UserID: 1, DilemmaID: 2, InitialChoice: "B"}); err != nil {
		t.Fatalf("other dilemma should be allowed: %v", err)
	}
}

func TestDecisionStoreFinalizeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewDecisionStore()
	start := time.Now()

	d, err := store.Create(ctx, domain.Decision{UserID: 1, DilemmaID: 1, InitialChoice: "A", InitialAt: start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Finalize(ctx, d.Finalize("B", start.Add(time.Second))); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := store.Finalize(ctx, d.Finalize("A", start.Add(2*time.Second))); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("expected already finalized, got %v", err)
	}

	stored, err := store.Find(ctx, 1, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if *stored.FinalChoice != "B" || *stored.TimeToDecide != 1 {
		t.Fatalf("expected first finalization to stick, got %+v", stored)
	}
}

func TestDecisionStorePathCountsSkipIncomplete(t *testing.T) {
	ctx := context.Background()
	store := NewDecisionStore()
	now := time.Now()

	pairs := []struct {
		user    int64
		initial string
		final   string
	}{
		{1, "A", "A"},
		{2, "A", "B"},
		{3, "B", "B"},
		{4, "A", ""},
	}
	for _, p := range pairs {
		d, err := store.Create(ctx, domain.Decision{UserID: p.user, DilemmaID: 7, InitialChoice: p.initial, InitialAt: now})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.final != "" {
			if err := store.Finalize(ctx, d.Finalize(p.final, now)); err != nil {
				t.Fatalf("finalize: %v", err)
			}
		}
	}

	counts, err := store.PathCounts(ctx, 7)
	if err != nil {
		t.Fatalf("path counts: %v", err)
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if len(counts) != 3 || total != 3 {
		t.Fatalf("expected three completed paths, got %+v", counts)
	}
	if n, _ := store.CountCompleted(ctx, 7); n != 3 {
		t.Fatalf("expected 3 completed, got %d", n)
	}
	if n, _ := store.CountAllCompleted(ctx); n != 3 {
		t.Fatalf("expected 3 completed overall, got %d", n)
	}
}
