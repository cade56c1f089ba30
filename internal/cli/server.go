package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/identity"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/opentdb"
	"quiz-attempt-service/internal/infra/postgres"
	rediscache "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/logging"
	"quiz-attempt-service/internal/metrics"
	transport "quiz-attempt-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// catalogBackend is what both catalog implementations provide.
type catalogBackend interface {
	app.QuizCatalog
	memory.QuizLoader
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.Secret == "" {
		return errors.New("auth secret not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		attempts app.AttemptStore = memory.NewAttemptStore()
		catalog  catalogBackend   = memory.NewQuizCatalog(sampleQuizzes()...)
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()

		attempts = postgres.NewAttemptStore(pool)
		catalog = postgres.NewQuizCatalog(db)
		logger.Info("using postgres storage")
	} else {
		logger.Warn("postgres url not configured, attempts are kept in memory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		quizzes = rediscache.NewQuizCache(client, catalog, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(catalog, quizTTL)
	}

	m := metrics.New()
	trivia := opentdb.NewClient(cfg.OpenTDB.BaseURL, config.TTLDuration(cfg.OpenTDB.Timeout, 10*time.Second))
	verifier := identity.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)

	attemptService := app.NewAttemptService(attempts, quizzes, memory.NewFeedStore(), logger.Named("attempts"), app.WithObserver(m))
	catalogService := app.NewCatalogService(catalog, quizzes, trivia, logger.Named("catalog"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", m.Handler())
	transport.NewHandler(attemptService, catalogService, verifier, logger.Named("http")).WithCategories(trivia).Register(mux)
	transport.NewWSHandler(attemptService, verifier, logger.Named("ws")).Register(mux)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.Instrument(mux, logger.Named("http"), m),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket connections are long lived
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting attempt service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case err := <-serverErr:
		logger.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory catalog so a fresh instance has something to play.
func sampleQuizzes() []domain.Quiz {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Quiz{
		{
			ID:          "sample-arithmetic",
			OwnerID:     "system",
			Title:       "Arithmetic warm-up",
			Description: "Three quick sums.",
			Published:   true,
			CreatedAt:   created,
			UpdatedAt:   created,
			Questions: []domain.Question{
				{
					Prompt:       "What is 2 + 2?",
					Choices:      []domain.Choice{{Text: "3"}, {Text: "4"}, {Text: "5"}},
					CorrectIndex: 1,
					Points:       1,
				},
				{
					Prompt:       "What is 7 x 6?",
					Choices:      []domain.Choice{{Text: "42"}, {Text: "36"}, {Text: "48"}},
					CorrectIndex: 0,
					Points:       2,
				},
				{
					Prompt:       "What is 144 / 12?",
					Choices:      []domain.Choice{{Text: "11"}, {Text: "14"}, {Text: "12"}},
					CorrectIndex: 2,
					Points:       3,
				},
			},
		},
	}
}
