package postgres

import (
	"context"
	"fmt"

	"dilemma-survey-service/internal/domain"
	"github.com/uptrace/bun"
)

type dilemmaRow struct {
	bun.BaseModel `bun:"table:dilemmas"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"name,notnull"`
	Title        string `bun:"title,notnull"`
	Description  string `bun:"description,notnull"`
	OptionsCount int    `bun:"options_count,notnull"`
	Active       bool   `bun:"active,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:dilemma_options"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DilemmaID int64  `bun:"dilemma_id,notnull"`
	Letter    string `bun:"letter,notnull"`
	Feedback  string `bun:"feedback,notnull"`
}

// Seeder inserts catalog dilemmas through bun, one transaction per dilemma.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) SeedDilemma(ctx context.Context, d domain.Dilemma) (bool, error) {
	inserted := false
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*dilemmaRow)(nil)).Where("name = ?", d.Name).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check dilemma: %w", err)
		}
		if exists {
			return nil
		}

		row := &dilemmaRow{
			Name:         d.Name,
			Title:        d.Title,
			Description:  d.Description,
			OptionsCount: d.OptionsCount,
			Active:       d.Active,
		}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert dilemma: %w", err)
		}

		options := make([]optionRow, 0, len(d.Options))
		for _, opt := range d.Options {
			options = append(options, optionRow{DilemmaID: row.ID, Letter: opt.Letter, Feedback: opt.Feedback})
		}
		if _, err := tx.NewInsert().Model(&options).Exec(ctx); err != nil {
			return fmt.Errorf("insert options: %w", err)
		}
		inserted = true
		return nil
	})
	return inserted, err
}
