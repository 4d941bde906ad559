package app

import (
	"context"
	"time"

	"dilemma-survey-service/internal/domain"
)

// UserService exposes participant identity lookups.
type UserService struct {
	users UserRepository
	now   func() time.Time
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// Register finds or creates the user for clientUUID.
func (s *UserService) Register(ctx context.Context, clientUUID string) (domain.User, bool, error) {
	clientUUID, err := NormalizeClientUUID(clientUUID)
	if err != nil {
		return domain.User{}, false, err
	}
	return s.users.FindOrCreate(ctx, clientUUID, s.now())
}

// Get returns a previously seen user and refreshes its last-active time.
func (s *UserService) Get(ctx context.Context, clientUUID string) (domain.User, error) {
	clientUUID, err := NormalizeClientUUID(clientUUID)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.Touch(ctx, clientUUID, s.now())
}
