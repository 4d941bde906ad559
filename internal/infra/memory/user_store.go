package memory

import (
	"context"
	"sync"
	"time"

	"dilemma-survey-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*domain.User)}
}

func (s *UserStore) FindOrCreate(_ context.Context, clientUUID string, now time.Time) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[clientUUID]; ok {
		user.LastActiveAt = now
		return *user, false, nil
	}
	s.nextID++
	user := &domain.User{
		ID:           s.nextID,
		ClientUUID:   clientUUID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.users[clientUUID] = user
	return *user, true, nil
}

func (s *UserStore) Touch(_ context.Context, clientUUID string, now time.Time) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[clientUUID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.LastActiveAt = now
	return *user, nil
}
