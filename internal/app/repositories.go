package app

import (
	"context"
	"time"

	"dilemma-survey-service/internal/domain"
)

// UserRepository persists participants keyed by client UUID.
type UserRepository interface {
	// FindOrCreate returns the user for clientUUID, creating it if needed, and
	// sets its last-active time to now. created reports whether a row was inserted.
	FindOrCreate(ctx context.Context, clientUUID string, now time.Time) (user domain.User, created bool, err error)
	// Touch refreshes last-active for an existing user or returns domain.ErrUserNotFound.
	Touch(ctx context.Context, clientUUID string, now time.Time) (domain.User, error)
}

// DilemmaFinder resolves a dilemma (with options) by name, active or not.
// Implementations return domain.ErrDilemmaNotFound when absent.
type DilemmaFinder interface {
	FindDilemma(ctx context.Context, name string) (domain.Dilemma, error)
}

// DilemmaCache is a DilemmaFinder that can drop a stale entry.
type DilemmaCache interface {
	DilemmaFinder
	Invalidate(ctx context.Context, name string) error
}

// DilemmaStore is the backing store for dilemmas and their options.
type DilemmaStore interface {
	LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error)
	ListDilemmas(ctx context.Context) ([]domain.Dilemma, error)
	UpdateDilemma(ctx context.Context, name string, update domain.DilemmaUpdate) (domain.Dilemma, error)
}

// DilemmaSeeder inserts a dilemma and its options unless a dilemma with the
// same name exists. inserted is false when it was already present.
type DilemmaSeeder interface {
	SeedDilemma(ctx context.Context, d domain.Dilemma) (inserted bool, err error)
}

// StatisticsRepository answers aggregate questions over completed decisions.
type StatisticsRepository interface {
	PathCounts(ctx context.Context, dilemmaID int64) ([]domain.PathCount, error)
	CountCompleted(ctx context.Context, dilemmaID int64) (int, error)
	CountAllCompleted(ctx context.Context) (int, error)
}

// DecisionRepository persists decisions. The store enforces one decision per
// (user, dilemma); Create returns domain.ErrAlreadyParticipated on violation.
type DecisionRepository interface {
	StatisticsRepository

	Create(ctx context.Context, d domain.Decision) (domain.Decision, error)
	// Find returns domain.ErrDecisionNotFound when the user has no decision for the dilemma.
	Find(ctx context.Context, userID, dilemmaID int64) (domain.Decision, error)
	// Finalize stores the final choice fields only if none were stored yet,
	// otherwise it returns domain.ErrAlreadyFinalized.
	Finalize(ctx context.Context, d domain.Decision) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Decision, error)
}

// FeedRepository keeps live statistics feeds (in-memory, Redis, etc).
type FeedRepository interface {
	GetOrCreate(dilemmaName string) *Feed
	Get(dilemmaName string) (*Feed, bool)
	DeleteIfEmpty(dilemmaName string)
}

// ChangeBus carries "statistics changed" notices between service instances
// so feeds on every instance refresh after a final choice on any of them.
type ChangeBus interface {
	Announce(ctx context.Context, dilemmaName string) error
	// Changes streams announced dilemma names until ctx is done.
	Changes(ctx context.Context) (<-chan string, error)
}

// StatsPublisher is notified after a decision is completed.
type StatsPublisher interface {
	Publish(ctx context.Context, dilemma domain.Dilemma) error
}

// ParticipantCounter counts completed decisions for a dilemma.
type ParticipantCounter interface {
	CountParticipants(ctx context.Context, dilemmaID int64) (int, error)
}
