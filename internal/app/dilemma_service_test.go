package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dilemma-survey-service/internal/app"
	"dilemma-survey-service/internal/catalog"
	"dilemma-survey-service/internal/domain"
	"dilemma-survey-service/internal/infra/memory"
)

func TestSeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	inserted, err := app.SeedDilemmas(context.Background(), env.store, catalog.Dilemmas())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected second seed to insert nothing, got %v", inserted)
	}

	list, err := env.dilemmas.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(catalog.Dilemmas()) {
		t.Fatalf("expected %d dilemmas, got %d", len(catalog.Dilemmas()), len(list))
	}
}

func TestSeedRejectsMismatchedOptions(t *testing.T) {
	env := newTestEnv(t)
	bad := domain.Dilemma{
		Name:         "broken",
		OptionsCount: 3,
		Active:       true,
		Options:      []domain.Option{{Letter: "A"}, {Letter: "B"}},
	}
	_, err := app.SeedDilemmas(context.Background(), env.store, []domain.Dilemma{bad})
	if !errors.Is(err, domain.ErrInvalidDilemma) {
		t.Fatalf("expected invalid dilemma, got %v", err)
	}
	if _, err := env.dilemmas.Get(context.Background(), "broken"); !errors.Is(err, domain.ErrDilemmaNotFound) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestListCountsParticipants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.decisions.SubmitInitialChoice(ctx, user1, "doctor", "A"); err != nil {
		t.Fatalf("initial: %v", err)
	}
	if _, err := env.decisions.SubmitFinalChoice(ctx, user1, "doctor", "A"); err != nil {
		t.Fatalf("final: %v", err)
	}
	if _, err := env.decisions.SubmitInitialChoice(ctx, user2, "doctor", "B"); err != nil {
		t.Fatalf("initial: %v", err)
	}

	list, err := env.dilemmas.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, d := range list {
		want := 0
		if d.Name == "doctor" {
			want = 1
		}
		if d.ParticipantCount != want {
			t.Fatalf("%s: expected %d participants, got %d", d.Name, want, d.ParticipantCount)
		}
	}
}

func TestUpdateDilemma(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	title := "Doctor's secret"
	inactive := false
	updated, err := env.dilemmas.Update(ctx, "doctor", domain.DilemmaUpdate{Title: &title, Active: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Active || updated.OptionsCount != 2 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	got, err := env.dilemmas.Get(ctx, "doctor")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != title || got.Active {
		t.Fatalf("expected cache to serve updated dilemma, got %+v", got)
	}

	list, _ := env.dilemmas.List(ctx)
	for _, d := range list {
		if d.Name == "doctor" {
			t.Fatalf("inactive dilemma should not be listed")
		}
	}

	if _, err := env.dilemmas.Update(ctx, "doctor", domain.DilemmaUpdate{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}
	if _, err := env.dilemmas.Update(ctx, "nope", domain.DilemmaUpdate{Title: &title}); !errors.Is(err, domain.ErrDilemmaNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.users.Get(ctx, user1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found before registering, got %v", err)
	}
	u, created, err := env.users.Register(ctx, user1)
	if err != nil || !created {
		t.Fatalf("expected created user, got created=%v err=%v", created, err)
	}
	again, created, err := env.users.Register(ctx, user1)
	if err != nil || created || again.ID != u.ID {
		t.Fatalf("expected existing user, got %+v created=%v err=%v", again, created, err)
	}
	if _, _, err := env.users.Register(ctx, "nope"); !errors.Is(err, domain.ErrInvalidClientUUID) {
		t.Fatalf("expected invalid uuid, got %v", err)
	}
}

func TestUpdateKeepsStoredChangeWhenInvalidationFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDilemmaStore()
	if _, err := app.SeedDilemmas(ctx, store, catalog.Dilemmas()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := &flakyCache{DilemmaCache: memory.NewDilemmaCache(store, time.Minute), failures: 10}
	dilemmas := app.NewDilemmaService(store, cache, nil)

	title := "Doctor's dilemma"
	updated, err := dilemmas.Update(ctx, "doctor", domain.DilemmaUpdate{Title: &title})
	if !errors.Is(err, app.ErrCacheNotInvalidated) {
		t.Fatalf("expected cache invalidation error, got %v", err)
	}
	if updated.Title != title {
		t.Fatalf("expected the stored update back, got %+v", updated)
	}
	stored, err := store.LoadDilemma(ctx, "doctor")
	if err != nil || stored.Title != title {
		t.Fatalf("expected update persisted, got %+v (%v)", stored, err)
	}
	if got := cache.attempts(); got != 3 {
		t.Fatalf("expected 3 invalidation attempts, got %d", got)
	}
}

func TestUpdateRetriesInvalidation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDilemmaStore()
	if _, err := app.SeedDilemmas(ctx, store, catalog.Dilemmas()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := &flakyCache{DilemmaCache: memory.NewDilemmaCache(store, time.Minute), failures: 1}
	dilemmas := app.NewDilemmaService(store, cache, nil)

	inactive := false
	if _, err := dilemmas.Update(ctx, "doctor", domain.DilemmaUpdate{Active: &inactive}); err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if got := cache.attempts(); got != 2 {
		t.Fatalf("expected 2 invalidation attempts, got %d", got)
	}
	d, err := cache.FindDilemma(ctx, "doctor")
	if err != nil || d.Active {
		t.Fatalf("expected cache to serve the inactive dilemma, got %+v (%v)", d, err)
	}
}

// flakyCache fails the first failures invalidations.
type flakyCache struct {
	*memory.DilemmaCache
	mu       sync.Mutex
	failures int
	calls    int
}

func (c *flakyCache) Invalidate(ctx context.Context, name string) error {
	c.mu.Lock()
	c.calls++
	fail := c.calls <= c.failures
	c.mu.Unlock()
	if fail {
		return errors.New("redis: connection refused")
	}
	return c.DilemmaCache.Invalidate(ctx, name)
}

func (c *flakyCache) attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
