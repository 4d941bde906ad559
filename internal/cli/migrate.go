package cli

import (
	"context"
	"database/sql"
	"fmt"

	"dilemma-survey-service/internal/app"
	"dilemma-survey-service/internal/catalog"
	"dilemma-survey-service/internal/config"
	"dilemma-survey-service/internal/infra/postgres"
	pgmigrations "dilemma-survey-service/internal/infra/postgres/migrations"
	"dilemma-survey-service/internal/logger"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return withBunDB(cfg, func(db *bun.DB) error {
				return runMigrations(cmd.Context(), db, log)
			})
		},
	}
}

// NewSeedCmd inserts the built-in dilemma catalog. Existing dilemmas are left untouched.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the dilemma catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return withBunDB(cfg, func(db *bun.DB) error {
				return seedCatalog(cmd.Context(), postgres.NewSeeder(db), log)
			})
		},
	}
}

func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func withBunDB(cfg config.Config, fn func(db *bun.DB) error) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	return fn(db)
}

func runMigrations(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.Info("migrations applied", "group", group.String())
	return nil
}

func seedCatalog(ctx context.Context, seeder app.DilemmaSeeder, log *logger.Logger) error {
	inserted, err := app.SeedDilemmas(ctx, seeder, catalog.Dilemmas())
	if err != nil {
		return fmt.Errorf("seed dilemmas: %w", err)
	}
	log.Info("dilemmas seeded", "inserted", inserted)
	return nil
}
