package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dilemma-survey-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrCacheNotInvalidated accompanies a stored update whose cache entry could
// not be dropped. The returned dilemma is still the updated one; readers may
// see the previous version until the cache TTL expires.
var ErrCacheNotInvalidated = errors.New("dilemma cache not invalidated")

const (
	invalidateAttempts = 3
	invalidateBackoff  = 50 * time.Millisecond
)

// DilemmaService serves dilemma metadata and administrative updates.
type DilemmaService struct {
	store  DilemmaStore
	cache  DilemmaCache
	counts ParticipantCounter
}

func NewDilemmaService(store DilemmaStore, cache DilemmaCache, counts ParticipantCounter) *DilemmaService {
	return &DilemmaService{store: store, cache: cache, counts: counts}
}

// List returns active dilemmas with their completed participant counts.
func (s *DilemmaService) List(ctx context.Context) ([]domain.DilemmaSummary, error) {
	dilemmas, err := s.store.ListDilemmas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dilemmas: %w", err)
	}

	active := make([]domain.Dilemma, 0, len(dilemmas))
	for _, d := range dilemmas {
		if d.Active {
			active = append(active, d)
		}
	}

	summaries := make([]domain.DilemmaSummary, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, d := range active {
		i, d := i, d
		g.Go(func() error {
			n, err := s.counts.CountParticipants(gctx, d.ID)
			if err != nil {
				return err
			}
			summaries[i] = domain.DilemmaSummary{Dilemma: d, ParticipantCount: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Get returns one dilemma, active or not, with its participant count.
func (s *DilemmaService) Get(ctx context.Context, name string) (domain.DilemmaSummary, error) {
	d, err := s.cache.FindDilemma(ctx, name)
	if err != nil {
		return domain.DilemmaSummary{}, err
	}
	n, err := s.counts.CountParticipants(ctx, d.ID)
	if err != nil {
		return domain.DilemmaSummary{}, err
	}
	return domain.DilemmaSummary{Dilemma: d, ParticipantCount: n}, nil
}

// Update changes title, description or the active flag. Options never change.
func (s *DilemmaService) Update(ctx context.Context, name string, update domain.DilemmaUpdate) (domain.Dilemma, error) {
	if update.Empty() {
		return domain.Dilemma{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidDilemma)
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return domain.Dilemma{}, fmt.Errorf("%w: title must not be blank", domain.ErrInvalidDilemma)
	}

	d, err := s.store.UpdateDilemma(ctx, name, update)
	if err != nil {
		return domain.Dilemma{}, err
	}
	if err := s.invalidate(ctx, name); err != nil {
		return d, fmt.Errorf("%w: %w", ErrCacheNotInvalidated, err)
	}
	return d, nil
}

func (s *DilemmaService) invalidate(ctx context.Context, name string) error {
	var err error
	for attempt := 1; attempt <= invalidateAttempts; attempt++ {
		if err = s.cache.Invalidate(ctx, name); err == nil {
			return nil
		}
		if attempt == invalidateAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * invalidateBackoff):
		}
	}
	return err
}

// SeedDilemmas inserts every definition that is not yet stored and returns the
// names it inserted. Running it again is a no-op.
func SeedDilemmas(ctx context.Context, seeder DilemmaSeeder, dilemmas []domain.Dilemma) ([]string, error) {
	var inserted []string
	for _, d := range dilemmas {
		if err := domain.ValidateDilemma(d); err != nil {
			return inserted, fmt.Errorf("seed %q: %w", d.Name, err)
		}
		ok, err := seeder.SeedDilemma(ctx, d)
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", d.Name, err)
		}
		if ok {
			inserted = append(inserted, d.Name)
		}
	}
	return inserted, nil
}
