package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	pgmigrations "quiz-attempt-service/internal/infra/postgres/migrations"
	infraredis "quiz-attempt-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenBun(pgURL)
	defer db.Close()
	applyMigrations(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	catalog := postgres.NewQuizCatalog(db)
	quizzes := infraredis.NewQuizCache(redisClient, catalog, 5*time.Minute)
	catalogService := app.NewCatalogService(catalog, quizzes, nil, nil)
	attempts := app.NewAttemptService(postgres.NewAttemptStore(pool), quizzes, memory.NewFeedStore(), nil)

	quiz, err := catalogService.Create(ctx, "author", sampleQuiz())
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	first, err := attempts.Submit(ctx, "u1", quiz.ID, []domain.Answer{1, 0}, 12)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Score != 3 || first.TotalPoints != 3 || first.Percentage != 100 {
		t.Fatalf("expected perfect score, got %+v", first)
	}
	second, err := attempts.Submit(ctx, "u1", quiz.ID, []domain.Answer{1, domain.Unanswered}, 20)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if second.Percentage != 33.33 {
		t.Fatalf("expected 33.33, got %v", second.Percentage)
	}

	list, err := attempts.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].QuizTitle != "Arithmetic" || list[0].TimeTaken != 20 {
		t.Fatalf("stored attempt lost fields: %+v", list[0])
	}

	stats, err := attempts.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAttempts != 2 || stats.AverageScore != 67 || stats.PerfectScores != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := attempts.Delete(ctx, first.ID, "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := attempts.Delete(ctx, "00000000-0000-0000-0000-000000000000", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := attempts.Delete(ctx, first.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// deleting the quiz keeps the title snapshot on past attempts
	if err := catalogService.Delete(ctx, "author", quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	list, err = attempts.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].QuizTitle != "Arithmetic" {
		t.Fatalf("expected surviving attempt with title, got %+v", list)
	}
	if _, err := attempts.Submit(ctx, "u1", quiz.ID, []domain.Answer{1, 0}, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted quiz to be gone from the cache, got %v", err)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Title:     "Arithmetic",
		Published: true,
		Questions: []domain.Question{
			{
				Prompt:       "What is 2 + 2?",
				Choices:      []domain.Choice{{Text: "3"}, {Text: "4"}, {Text: "5"}},
				CorrectIndex: 1,
				Points:       1,
			},
			{
				Prompt:       "What is 3 x 3?",
				Choices:      []domain.Choice{{Text: "9"}, {Text: "6"}},
				CorrectIndex: 0,
				Points:       2,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
