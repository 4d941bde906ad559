package app

import (
	"context"
	"fmt"

	"dilemma-survey-service/internal/domain"
)

// StatisticsService aggregates completed decisions.
type StatisticsService struct {
	dilemmas DilemmaFinder
	stats    StatisticsRepository
	feeds    FeedRepository
	bus      ChangeBus
}

// NewStatisticsService wires the statistics reads and live feeds. bus may be
// nil for a single instance; Publish then refreshes local feeds directly.
func NewStatisticsService(dilemmas DilemmaFinder, stats StatisticsRepository, feeds FeedRepository, bus ChangeBus) *StatisticsService {
	return &StatisticsService{dilemmas: dilemmas, stats: stats, feeds: feeds, bus: bus}
}

// CountParticipants counts decisions for the dilemma that have a final choice.
func (s *StatisticsService) CountParticipants(ctx context.Context, dilemmaID int64) (int, error) {
	n, err := s.stats.CountCompleted(ctx, dilemmaID)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}

// CompletedCount is CountParticipants addressed by dilemma name.
func (s *StatisticsService) CompletedCount(ctx context.Context, dilemmaName string) (int, error) {
	dilemma, err := s.dilemmas.FindDilemma(ctx, dilemmaName)
	if err != nil {
		return 0, err
	}
	return s.CountParticipants(ctx, dilemma.ID)
}

// TotalCompleted counts completed decisions across all dilemmas.
func (s *StatisticsService) TotalCompleted(ctx context.Context) (int, error) {
	n, err := s.stats.CountAllCompleted(ctx)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

// PathStats returns the full initial->final grid for a dilemma.
func (s *StatisticsService) PathStats(ctx context.Context, dilemmaName string) (domain.PathStats, error) {
	dilemma, err := s.dilemmas.FindDilemma(ctx, dilemmaName)
	if err != nil {
		return domain.PathStats{}, err
	}
	return s.pathStats(ctx, dilemma)
}

func (s *StatisticsService) pathStats(ctx context.Context, dilemma domain.Dilemma) (domain.PathStats, error) {
	counts, err := s.stats.PathCounts(ctx, dilemma.ID)
	if err != nil {
		return domain.PathStats{}, fmt.Errorf("path counts: %w", err)
	}
	return BuildPathStats(dilemma, counts), nil
}

// BuildPathStats lays grouped path counts onto the n×n grid of the
// dilemma's letters. Every path and option key is present, zero by default.
func BuildPathStats(dilemma domain.Dilemma, counts []domain.PathCount) domain.PathStats {
	letters := domain.ValidLetters(dilemma.OptionsCount)
	stats := domain.PathStats{
		DilemmaName:  dilemma.Name,
		PathCounts:   make(map[string]int, len(letters)*len(letters)),
		OptionCounts: make(map[string]int, len(letters)),
	}
	for _, from := range letters {
		stats.OptionCounts[from] = 0
		for _, to := range letters {
			stats.PathCounts[domain.Path(from, to)] = 0
		}
	}
	for _, c := range counts {
		if c.FinalChoice == "" || c.Count <= 0 {
			continue
		}
		stats.PathCounts[domain.Path(c.InitialChoice, c.FinalChoice)] += c.Count
		stats.OptionCounts[c.FinalChoice] += c.Count
		stats.TotalCompleted += c.Count
	}
	return stats
}

// Subscribe returns a channel of path statistics snapshots for a dilemma,
// starting with the current one. The caller must invoke cancel.
func (s *StatisticsService) Subscribe(ctx context.Context, dilemmaName string) (<-chan domain.PathStats, func(), error) {
	dilemma, err := s.dilemmas.FindDilemma(ctx, dilemmaName)
	if err != nil {
		return nil, nil, err
	}
	for {
		feed := s.feeds.GetOrCreate(dilemma.Name)
		ch, unsubscribe, err := feed.subscribe(func() (domain.PathStats, error) {
			return s.pathStats(ctx, dilemma)
		})
		if err != nil {
			s.feeds.DeleteIfEmpty(dilemma.Name)
			return nil, nil, err
		}
		// A concurrent DeleteIfEmpty may have dropped the feed before we joined it.
		if current, ok := s.feeds.Get(dilemma.Name); !ok || current != feed {
			unsubscribe()
			continue
		}
		cancel := func() {
			unsubscribe()
			s.feeds.DeleteIfEmpty(dilemma.Name)
		}
		return ch, cancel, nil
	}
}

// Publish pushes fresh statistics for a dilemma to live subscribers. With a
// bus the notice goes to every instance, this one included, through Listen.
func (s *StatisticsService) Publish(ctx context.Context, dilemma domain.Dilemma) error {
	if s.bus != nil {
		if err := s.bus.Announce(ctx, dilemma.Name); err != nil {
			return fmt.Errorf("announce statistics change: %w", err)
		}
		return nil
	}
	return s.refresh(ctx, dilemma)
}

// Listen applies notices from the bus to local feeds until ctx is done.
func (s *StatisticsService) Listen(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}
	changes, err := s.bus.Changes(ctx)
	if err != nil {
		return fmt.Errorf("listen for statistics changes: %w", err)
	}
	for name := range changes {
		if _, ok := s.feeds.Get(name); !ok {
			continue
		}
		dilemma, err := s.dilemmas.FindDilemma(ctx, name)
		if err != nil {
			continue
		}
		// a failed refresh leaves subscribers on the previous snapshot
		_ = s.refresh(ctx, dilemma)
	}
	return ctx.Err()
}

// refresh is a no-op when nobody on this instance is subscribed.
func (s *StatisticsService) refresh(ctx context.Context, dilemma domain.Dilemma) error {
	feed, ok := s.feeds.Get(dilemma.Name)
	if !ok {
		return nil
	}
	return feed.refresh(func() (domain.PathStats, error) {
		return s.pathStats(ctx, dilemma)
	})
}
