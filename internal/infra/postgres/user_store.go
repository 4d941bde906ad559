package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dilemma-survey-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore persists participants.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// FindOrCreate upserts on client_uuid; xmax is 0 only for freshly inserted rows.
func (s *UserStore) FindOrCreate(ctx context.Context, clientUUID string, now time.Time) (domain.User, bool, error) {
	var u domain.User
	var created bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (client_uuid, created_at, last_active_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (client_uuid) DO UPDATE SET last_active_at = EXCLUDED.last_active_at
		RETURNING id, client_uuid, created_at, last_active_at, (xmax = 0)`,
		clientUUID, now).Scan(&u.ID, &u.ClientUUID, &u.CreatedAt, &u.LastActiveAt, &created)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("upsert user: %w", err)
	}
	return u, created, nil
}

func (s *UserStore) Touch(ctx context.Context, clientUUID string, now time.Time) (domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		UPDATE users SET last_active_at = $2
		WHERE client_uuid = $1
		RETURNING id, client_uuid, created_at, last_active_at`,
		clientUUID, now).Scan(&u.ID, &u.ClientUUID, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("touch user: %w", err)
	}
	return u, nil
}
