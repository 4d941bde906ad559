package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dilemma-survey-service/internal/domain"
)

func TestDilemmaCacheCaches(t *testing.T) {
	loader := &countingLoader{DilemmaLoader: seededStore(t)}
	cache := NewDilemmaCache(loader, time.Minute)

	if _, err := cache.FindDilemma(context.Background(), "doctor"); err != nil {
		t.Fatalf("find dilemma: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := cache.FindDilemma(context.Background(), "doctor"); err != nil {
		t.Fatalf("find dilemma 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestDilemmaCacheInvalidate(t *testing.T) {
	store := seededStore(t)
	loader := &countingLoader{DilemmaLoader: store}
	cache := NewDilemmaCache(loader, time.Minute)
	ctx := context.Background()

	if _, err := cache.FindDilemma(ctx, "doctor"); err != nil {
		t.Fatalf("find dilemma: %v", err)
	}
	inactive := false
	if _, err := store.UpdateDilemma(ctx, "doctor", domain.DilemmaUpdate{Active: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := cache.Invalidate(ctx, "doctor"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	d, err := cache.FindDilemma(ctx, "doctor")
	if err != nil {
		t.Fatalf("find after invalidate: %v", err)
	}
	if d.Active {
		t.Fatalf("expected reloaded inactive dilemma")
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestDilemmaCacheDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{DilemmaLoader: seededStore(t)}
	cache := NewDilemmaCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.FindDilemma(context.Background(), "unknown"); !errors.Is(err, domain.ErrDilemmaNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.count() != 2 {
		t.Fatalf("expected misses to reach the loader, got %d", loader.count())
	}
}

func TestDilemmaCacheInvalidateDuringLoad(t *testing.T) {
	store := seededStore(t)
	loader := newGatedLoader(store)
	cache := NewDilemmaCache(loader, time.Minute)
	ctx := context.Background()

	done := make(chan domain.Dilemma, 1)
	go func() {
		d, err := cache.FindDilemma(ctx, "doctor")
		if err != nil {
			t.Errorf("find during load: %v", err)
		}
		done <- d
	}()
	<-loader.started

	inactive := false
	if _, err := store.UpdateDilemma(ctx, "doctor", domain.DilemmaUpdate{Active: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := cache.Invalidate(ctx, "doctor"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	close(loader.release)
	<-done

	d, err := cache.FindDilemma(ctx, "doctor")
	if err != nil {
		t.Fatalf("find after invalidate: %v", err)
	}
	if d.Active {
		t.Fatalf("load that started before invalidate was cached")
	}
	if loader.count() != 2 {
		t.Fatalf("expected a fresh load after invalidate, loader calls %d", loader.count())
	}
}

// gatedLoader holds its first load until release is closed.
type gatedLoader struct {
	countingLoader
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedLoader(inner DilemmaLoader) *gatedLoader {
	return &gatedLoader{
		countingLoader: countingLoader{DilemmaLoader: inner},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (l *gatedLoader) LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	first := false
	l.once.Do(func() { first = true })
	if !first {
		return l.countingLoader.LoadDilemma(ctx, name)
	}
	// the first load reads its row before blocking, like a slow query
	d, err := l.countingLoader.LoadDilemma(ctx, name)
	close(l.started)
	<-l.release
	return d, err
}

type countingLoader struct {
	DilemmaLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.DilemmaLoader.LoadDilemma(ctx, name)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func seededStore(t *testing.T) *DilemmaStore {
	t.Helper()
	store := NewDilemmaStore()
	if _, err := store.SeedDilemma(context.Background(), sampleDilemma()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func sampleDilemma() domain.Dilemma {
	return domain.Dilemma{
		Name:         "doctor",
		Title:        "Doctor",
		OptionsCount: 2,
		Active:       true,
		Options: []domain.Option{
			{Letter: "A", Feedback: "feedback A"},
			{Letter: "B", Feedback: "feedback B"},
		},
	}
}
