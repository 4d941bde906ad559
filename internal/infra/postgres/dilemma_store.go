package postgres

import (
	"context"
	"errors"
	"fmt"

	"dilemma-survey-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DilemmaStore reads and updates dilemmas and their options.
type DilemmaStore struct {
	pool *pgxpool.Pool
}

func NewDilemmaStore(pool *pgxpool.Pool) *DilemmaStore {
	return &DilemmaStore{pool: pool}
}

const selectDilemmaColumns = `SELECT id, name, title, description, options_count, active FROM dilemmas`

func (s *DilemmaStore) LoadDilemma(ctx context.Context, name string) (domain.Dilemma, error) {
	var d domain.Dilemma
	err := s.pool.QueryRow(ctx, selectDilemmaColumns+` WHERE name=$1`, name).
		Scan(&d.ID, &d.Name, &d.Title, &d.Description, &d.OptionsCount, &d.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	if err != nil {
		return domain.Dilemma{}, fmt.Errorf("load dilemma: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT id, letter, feedback FROM dilemma_options WHERE dilemma_id=$1 ORDER BY letter`, d.ID)
	if err != nil {
		return domain.Dilemma{}, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.Letter, &opt.Feedback); err != nil {
			return domain.Dilemma{}, fmt.Errorf("scan option: %w", err)
		}
		d.Options = append(d.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return domain.Dilemma{}, fmt.Errorf("load options: %w", err)
	}
	return d, nil
}

func (s *DilemmaStore) ListDilemmas(ctx context.Context) ([]domain.Dilemma, error) {
	rows, err := s.pool.Query(ctx, selectDilemmaColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list dilemmas: %w", err)
	}
	var dilemmas []domain.Dilemma
	index := make(map[int64]int)
	for rows.Next() {
		var d domain.Dilemma
		if err := rows.Scan(&d.ID, &d.Name, &d.Title, &d.Description, &d.OptionsCount, &d.Active); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dilemma: %w", err)
		}
		index[d.ID] = len(dilemmas)
		dilemmas = append(dilemmas, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dilemmas: %w", err)
	}

	optRows, err := s.pool.Query(ctx, `SELECT dilemma_id, id, letter, feedback FROM dilemma_options ORDER BY dilemma_id, letter`)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer optRows.Close()
	for optRows.Next() {
		var dilemmaID int64
		var opt domain.Option
		if err := optRows.Scan(&dilemmaID, &opt.ID, &opt.Letter, &opt.Feedback); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		if i, ok := index[dilemmaID]; ok {
			dilemmas[i].Options = append(dilemmas[i].Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	return dilemmas, nil
}

// UpdateDilemma applies the non-nil fields of update. Options are never touched.
func (s *DilemmaStore) UpdateDilemma(ctx context.Context, name string, update domain.DilemmaUpdate) (domain.Dilemma, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dilemmas
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    active = COALESCE($4, active),
		    updated_at = NOW()
		WHERE name = $1`,
		name, update.Title, update.Description, update.Active)
	if err != nil {
		return domain.Dilemma{}, fmt.Errorf("update dilemma: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Dilemma{}, domain.ErrDilemmaNotFound
	}
	return s.LoadDilemma(ctx, name)
}
