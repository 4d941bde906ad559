package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dilemma-survey-service/internal/app"
	"dilemma-survey-service/internal/config"
	"dilemma-survey-service/internal/infra/memory"
	"dilemma-survey-service/internal/infra/postgres"
	rediscache "dilemma-survey-service/internal/infra/redis"
	"dilemma-survey-service/internal/logger"
	transport "dilemma-survey-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the survey server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the persistence wiring chosen from config.
type stores struct {
	users     app.UserRepository
	dilemmas  app.DilemmaStore
	decisions app.DecisionRepository
	close     func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing with lazy reconnects", "addr", cfg.Redis.Addr, "error", err)
		}
	}
	cacheTTL := config.TTLDuration(cfg.Dilemmas.CacheTTL, 10*time.Minute)

	var cache app.DilemmaCache
	var feeds app.FeedRepository
	var bus app.ChangeBus
	if redisClient != nil {
		cache = rediscache.NewDilemmaCache(redisClient, st.dilemmas, cacheTTL)
		feedStore := rediscache.NewFeedStore(redisClient, cfg.Redis.FeedChannel)
		feeds, bus = feedStore, feedStore
	} else {
		cache = memory.NewDilemmaCache(st.dilemmas, cacheTTL)
		feeds = memory.NewFeedStore()
	}

	stats := app.NewStatisticsService(cache, st.decisions, feeds, bus)
	decisions := app.NewDecisionService(st.users, cache, st.decisions, stats)
	dilemmas := app.NewDilemmaService(st.dilemmas, cache, stats)
	users := app.NewUserService(st.users)

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	go func() {
		if err := stats.Listen(listenCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("statistics change listener stopped", "error", err)
		}
	}()

	if cfg.Server.AdminToken == "" {
		log.Warn("admin token not configured, admin routes are disabled")
	}
	if mode := cfg.Log.Mode; mode == "prod" || mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(
		transport.NewAPIHandler(decisions, stats, dilemmas, users, log),
		transport.NewWSHandler(stats, log, cfg.Server.AllowedOrigins),
		log,
		transport.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins, AdminToken: cfg.Server.AdminToken},
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting survey service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores returns Postgres-backed stores when a URL is configured, after
// migrating and seeding. Otherwise it returns seeded in-memory stores.
func openStores(ctx context.Context, cfg config.Config, log *logger.Logger) (stores, error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres not configured, using in-memory stores")
		dilemmaStore := memory.NewDilemmaStore()
		if err := seedCatalog(ctx, dilemmaStore, log); err != nil {
			return stores{}, err
		}
		return stores{
			users:     memory.NewUserStore(),
			dilemmas:  dilemmaStore,
			decisions: memory.NewDecisionStore(),
			close:     func() {},
		}, nil
	}

	err := withBunDB(cfg, func(db *bun.DB) error {
		if err := runMigrations(ctx, db, log); err != nil {
			return err
		}
		return seedCatalog(ctx, postgres.NewSeeder(db), log)
	})
	if err != nil {
		return stores{}, err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:     postgres.NewUserStore(pool),
		dilemmas:  postgres.NewDilemmaStore(pool),
		decisions: postgres.NewDecisionStore(pool),
		close:     pool.Close,
	}, nil
}
