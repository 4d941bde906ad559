package memory

import (
	"context"
	"sort"
	"sync"

	"dilemma-survey-service/internal/domain"
)

// DilemmaStore is an in-memory implementation of app.DilemmaStore, used when
// no database is configured and in tests.
type DilemmaStore struct {
	mu           sync.RWMutex
	nextID       int64
	nextOptionID int64
	dilemmas     map[string]domain.Dilemma
}

func NewDilemmaStore() *DilemmaStore {
	return &DilemmaStore{dilemmas: make(map[string]domain.Dilemma)}
}

func (s *DilemmaStore) LoadDilemma(_ context.Context, name string) (domain.Dilemma, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dilemmas[name]
	if !ok {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	return cloneDilemma(d), nil
}

func (s *DilemmaStore) ListDilemmas(_ context.Context) ([]domain.Dilemma, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Dilemma, 0, len(s.dilemmas))
	for _, d := range s.dilemmas {
		out = append(out, cloneDilemma(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DilemmaStore) UpdateDilemma(_ context.Context, name string, update domain.DilemmaUpdate) (domain.Dilemma, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dilemmas[name]
	if !ok {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	if update.Title != nil {
		d.Title = *update.Title
	}
	if update.Description != nil {
		d.Description = *update.Description
	}
	if update.Active != nil {
		d.Active = *update.Active
	}
	s.dilemmas[name] = d
	return cloneDilemma(d), nil
}

func (s *DilemmaStore) SeedDilemma(_ context.Context, d domain.Dilemma) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dilemmas[d.Name]; ok {
		return false, nil
	}
	s.nextID++
	d = cloneDilemma(d)
	d.ID = s.nextID
	for i := range d.Options {
		s.nextOptionID++
		d.Options[i].ID = s.nextOptionID
	}
	s.dilemmas[d.Name] = d
	return true, nil
}

func cloneDilemma(d domain.Dilemma) domain.Dilemma {
	d.Options = append([]domain.Option(nil), d.Options...)
	return d
}
