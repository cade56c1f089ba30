package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewQuizCatalog(sampleQuiz())}
	cache := NewQuizCache(loader, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizCacheInvalidate(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewQuizCatalog(sampleQuiz())}
	cache := NewQuizCache(loader, time.Minute)
	ctx := context.Background()

	_, _ = cache.GetQuiz(ctx, "quiz-1")
	if err := cache.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.GetQuiz(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuizCacheExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewQuizCatalog(sampleQuiz())}
	cache := NewQuizCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	_, _ = cache.GetQuiz(ctx, "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuiz(ctx, "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestQuizCacheMissing(t *testing.T) {
	cache := NewQuizCache(NewQuizCatalog(), time.Minute)
	_, err := cache.GetQuiz(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		OwnerID:   "owner",
		Title:     "Arithmetic",
		Published: true,
		Questions: []domain.Question{
			{
				Prompt:       "What is 2 + 2?",
				Choices:      []domain.Choice{{Text: "3"}, {Text: "4"}},
				CorrectIndex: 1,
				Points:       1,
			},
		},
	}
}
