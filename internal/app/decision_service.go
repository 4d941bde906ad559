package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dilemma-survey-service/internal/domain"
	"github.com/google/uuid"
)

// DecisionService records the two-step initial/final choice flow.
type DecisionService struct {
	users     UserRepository
	dilemmas  DilemmaFinder
	decisions DecisionRepository
	publisher StatsPublisher
	now       func() time.Time
}

// NewDecisionService wires the decision use cases. publisher may be nil.
func NewDecisionService(users UserRepository, dilemmas DilemmaFinder, decisions DecisionRepository, publisher StatsPublisher) *DecisionService {
	return NewDecisionServiceWithClock(users, dilemmas, decisions, publisher, time.Now)
}

// NewDecisionServiceWithClock allows deterministic timestamps in tests.
func NewDecisionServiceWithClock(users UserRepository, dilemmas DilemmaFinder, decisions DecisionRepository, publisher StatsPublisher, now func() time.Time) *DecisionService {
	return &DecisionService{
		users:     users,
		dilemmas:  dilemmas,
		decisions: decisions,
		publisher: publisher,
		now:       now,
	}
}

// SubmitInitialChoice opens a decision for the user and dilemma.
func (s *DecisionService) SubmitInitialChoice(ctx context.Context, clientUUID, dilemmaName, choice string) (domain.InitialResult, error) {
	clientUUID, err := NormalizeClientUUID(clientUUID)
	if err != nil {
		return domain.InitialResult{}, err
	}
	now := s.now()

	user, _, err := s.users.FindOrCreate(ctx, clientUUID, now)
	if err != nil {
		return domain.InitialResult{}, fmt.Errorf("resolve user: %w", err)
	}
	dilemma, err := s.activeDilemma(ctx, dilemmaName)
	if err != nil {
		return domain.InitialResult{}, err
	}

	letter := domain.NormalizeLetter(choice)
	if !domain.IsValidLetter(dilemma.OptionsCount, letter) {
		return domain.InitialResult{}, domain.ErrInvalidChoice
	}

	// The unique (user, dilemma) constraint is the backstop for concurrent submissions.
	_, err = s.decisions.Find(ctx, user.ID, dilemma.ID)
	switch {
	case err == nil:
		return domain.InitialResult{}, domain.ErrAlreadyParticipated
	case !errors.Is(err, domain.ErrDecisionNotFound):
		return domain.InitialResult{}, fmt.Errorf("find decision: %w", err)
	}

	decision, err := s.decisions.Create(ctx, domain.Decision{
		UserID:        user.ID,
		DilemmaID:     dilemma.ID,
		DilemmaName:   dilemma.Name,
		InitialChoice: letter,
		InitialAt:     now,
	})
	if err != nil {
		return domain.InitialResult{}, fmt.Errorf("create decision: %w", err)
	}

	return domain.InitialResult{
		DecisionID: decision.ID,
		Feedback:   dilemma.Feedback(letter),
	}, nil
}

// SubmitFinalChoice completes an open decision. A decision is finalized at
// most once; later attempts fail with domain.ErrAlreadyFinalized.
func (s *DecisionService) SubmitFinalChoice(ctx context.Context, clientUUID, dilemmaName, choice string) (domain.FinalResult, error) {
	clientUUID, err := NormalizeClientUUID(clientUUID)
	if err != nil {
		return domain.FinalResult{}, err
	}
	now := s.now()

	user, err := s.users.Touch(ctx, clientUUID, now)
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("resolve user: %w", err)
	}
	dilemma, err := s.activeDilemma(ctx, dilemmaName)
	if err != nil {
		return domain.FinalResult{}, err
	}

	letter := domain.NormalizeLetter(choice)
	if !domain.IsValidLetter(dilemma.OptionsCount, letter) {
		return domain.FinalResult{}, domain.ErrInvalidChoice
	}

	decision, err := s.decisions.Find(ctx, user.ID, dilemma.ID)
	if errors.Is(err, domain.ErrDecisionNotFound) {
		return domain.FinalResult{}, domain.ErrInitialChoiceRequired
	}
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("find decision: %w", err)
	}
	if decision.Completed() {
		return domain.FinalResult{}, domain.ErrAlreadyFinalized
	}

	final := decision.Finalize(letter, now)
	if err := s.decisions.Finalize(ctx, final); err != nil {
		return domain.FinalResult{}, fmt.Errorf("finalize decision: %w", err)
	}

	if s.publisher != nil {
		// feed refresh is best-effort once the decision is stored
		_ = s.publisher.Publish(ctx, dilemma)
	}

	return domain.FinalResult{
		DecisionID:    final.ID,
		InitialChoice: final.InitialChoice,
		FinalChoice:   letter,
		ChangedMind:   *final.ChangedMind,
		Path:          domain.Path(final.InitialChoice, letter),
		TimeToDecide:  *final.TimeToDecide,
	}, nil
}

// ListUserDecisions returns every decision the user has opened.
func (s *DecisionService) ListUserDecisions(ctx context.Context, clientUUID string) ([]domain.Decision, error) {
	clientUUID, err := NormalizeClientUUID(clientUUID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Touch(ctx, clientUUID, s.now())
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	decisions, err := s.decisions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return decisions, nil
}

func (s *DecisionService) activeDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	dilemma, err := s.dilemmas.FindDilemma(ctx, name)
	if err != nil {
		return domain.Dilemma{}, err
	}
	if !dilemma.Active {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	return dilemma, nil
}

// NormalizeClientUUID rejects identifiers that are not syntactically valid
// UUIDs and returns the canonical lower-case form.
func NormalizeClientUUID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", domain.ErrInvalidClientUUID
	}
	return id.String(), nil
}
