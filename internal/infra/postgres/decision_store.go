package postgres

import (
	"context"
	"errors"
	"fmt"

	"dilemma-survey-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// DecisionStore persists decisions. The decisions_user_dilemma_key constraint
// enforces one decision per user and dilemma.
type DecisionStore struct {
	pool *pgxpool.Pool
}

func NewDecisionStore(pool *pgxpool.Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

const selectDecisionColumns = `
	SELECT d.id, d.user_id, d.dilemma_id, dl.name, d.initial_choice, d.final_choice,
	       d.changed_mind, d.initial_at, d.final_at, d.time_to_decide
	FROM decisions d
	JOIN dilemmas dl ON dl.id = d.dilemma_id`

func (s *DecisionStore) Create(ctx context.Context, d domain.Decision) (domain.Decision, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO decisions (user_id, dilemma_id, initial_choice, initial_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		d.UserID, d.DilemmaID, d.InitialChoice, d.InitialAt).Scan(&d.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Decision{}, domain.ErrAlreadyParticipated
		}
		return domain.Decision{}, fmt.Errorf("insert decision: %w", err)
	}
	return d, nil
}

func (s *DecisionStore) Find(ctx context.Context, userID, dilemmaID int64) (domain.Decision, error) {
	row := s.pool.QueryRow(ctx, selectDecisionColumns+` WHERE d.user_id = $1 AND d.dilemma_id = $2`, userID, dilemmaID)
	d, err := scanDecision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Decision{}, domain.ErrDecisionNotFound
	}
	if err != nil {
		return domain.Decision{}, fmt.Errorf("find decision: %w", err)
	}
	return d, nil
}

// Finalize is a conditional write: only a row without a final choice is updated.
func (s *DecisionStore) Finalize(ctx context.Context, d domain.Decision) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE decisions
		SET final_choice = $2, changed_mind = $3, final_at = $4, time_to_decide = $5
		WHERE id = $1 AND final_choice IS NULL`,
		d.ID, d.FinalChoice, d.ChangedMind, d.FinalAt, d.TimeToDecide)
	if err != nil {
		return fmt.Errorf("finalize decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyFinalized
	}
	return nil
}

func (s *DecisionStore) ListByUser(ctx context.Context, userID int64) ([]domain.Decision, error) {
	rows, err := s.pool.Query(ctx, selectDecisionColumns+` WHERE d.user_id = $1 ORDER BY d.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()
	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DecisionStore) PathCounts(ctx context.Context, dilemmaID int64) ([]domain.PathCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT initial_choice, final_choice, COUNT(*)
		FROM decisions
		WHERE dilemma_id = $1 AND final_choice IS NOT NULL
		GROUP BY initial_choice, final_choice`, dilemmaID)
	if err != nil {
		return nil, fmt.Errorf("path counts: %w", err)
	}
	defer rows.Close()
	var out []domain.PathCount
	for rows.Next() {
		var pc domain.PathCount
		if err := rows.Scan(&pc.InitialChoice, &pc.FinalChoice, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan path count: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *DecisionStore) CountCompleted(ctx context.Context, dilemmaID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM decisions WHERE dilemma_id = $1 AND final_choice IS NOT NULL`, dilemmaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

func (s *DecisionStore) CountAllCompleted(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM decisions WHERE final_choice IS NOT NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

func scanDecision(row pgx.Row) (domain.Decision, error) {
	var d domain.Decision
	err := row.Scan(
		&d.ID, &d.UserID, &d.DilemmaID, &d.DilemmaName, &d.InitialChoice, &d.FinalChoice,
		&d.ChangedMind, &d.InitialAt, &d.FinalAt, &d.TimeToDecide,
	)
	return d, err
}
