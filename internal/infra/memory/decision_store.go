package memory

import (
	"context"
	"sort"
	"sync"

	"dilemma-survey-service/internal/domain"
)

type decisionKey struct {
	userID    int64
	dilemmaID int64
}

// DecisionStore is an in-memory implementation of app.DecisionRepository.
// The (user, dilemma) map key plays the role of the unique constraint.
type DecisionStore struct {
	mu        sync.RWMutex
	nextID    int64
	decisions map[decisionKey]domain.Decision
}

func NewDecisionStore() *DecisionStore {
	return &DecisionStore{decisions: make(map[decisionKey]domain.Decision)}
}

func (s *DecisionStore) Create(_ context.Context, d domain.Decision) (domain.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := decisionKey{userID: d.UserID, dilemmaID: d.DilemmaID}
	if _, ok := s.decisions[key]; ok {
		return domain.Decision{}, domain.ErrAlreadyParticipated
	}
	s.nextID++
	d.ID = s.nextID
	s.decisions[key] = d
	return d, nil
}

func (s *DecisionStore) Find(_ context.Context, userID, dilemmaID int64) (domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[decisionKey{userID: userID, dilemmaID: dilemmaID}]
	if !ok {
		return domain.Decision{}, domain.ErrDecisionNotFound
	}
	return d, nil
}

func (s *DecisionStore) Finalize(_ context.Context, d domain.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := decisionKey{userID: d.UserID, dilemmaID: d.DilemmaID}
	stored, ok := s.decisions[key]
	if !ok || stored.ID != d.ID {
		return domain.ErrDecisionNotFound
	}
	if stored.Completed() {
		return domain.ErrAlreadyFinalized
	}
	stored.FinalChoice = d.FinalChoice
	stored.ChangedMind = d.ChangedMind
	stored.FinalAt = d.FinalAt
	stored.TimeToDecide = d.TimeToDecide
	s.decisions[key] = stored
	return nil
}

func (s *DecisionStore) ListByUser(_ context.Context, userID int64) ([]domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Decision
	for key, d := range s.decisions {
		if key.userID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DecisionStore) PathCounts(_ context.Context, dilemmaID int64) ([]domain.PathCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grouped := make(map[string]*domain.PathCount)
	for key, d := range s.decisions {
		if key.dilemmaID != dilemmaID || !d.Completed() {
			continue
		}
		path := domain.Path(d.InitialChoice, *d.FinalChoice)
		pc, ok := grouped[path]
		if !ok {
			pc = &domain.PathCount{InitialChoice: d.InitialChoice, FinalChoice: *d.FinalChoice}
			grouped[path] = pc
		}
		pc.Count++
	}
	out := make([]domain.PathCount, 0, len(grouped))
	for _, pc := range grouped {
		out = append(out, *pc)
	}
	return out, nil
}

func (s *DecisionStore) CountCompleted(_ context.Context, dilemmaID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key, d := range s.decisions {
		if key.dilemmaID == dilemmaID && d.Completed() {
			n++
		}
	}
	return n, nil
}

func (s *DecisionStore) CountAllCompleted(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.decisions {
		if d.Completed() {
			n++
		}
	}
	return n, nil
}
