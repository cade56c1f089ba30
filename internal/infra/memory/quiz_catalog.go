package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// QuizCatalog is an in-memory implementation of app.QuizCatalog.
type QuizCatalog struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

// NewQuizCatalog returns a catalog seeded with the given quizzes.
func NewQuizCatalog(seed ...domain.Quiz) *QuizCatalog {
	c := &QuizCatalog{quizzes: make(map[string]domain.Quiz, len(seed))}
	for _, q := range seed {
		c.quizzes[q.ID] = cloneQuiz(q)
	}
	return c
}

func (c *QuizCatalog) Create(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (c *QuizCatalog) Get(_ context.Context, quizID string) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quiz, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(quiz), nil
}

func (c *QuizCatalog) Update(_ context.Context, quiz domain.Quiz) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	c.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (c *QuizCatalog) Delete(_ context.Context, quizID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(c.quizzes, quizID)
	return nil
}

func (c *QuizCatalog) List(_ context.Context) ([]domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(c.quizzes))
	for _, q := range c.quizzes {
		out = append(out, cloneQuiz(q))
	}
	return out, nil
}

// LoadQuiz lets the catalog act as the loader behind a quiz cache.
func (c *QuizCatalog) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.Get(ctx, quizID)
}

// cloneQuiz copies the question and choice slices so callers cannot mutate stored state.
func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		choices := make([]domain.Choice, len(question.Choices))
		copy(choices, question.Choices)
		question.Choices = choices
		questions[i] = question
	}
	q.Questions = questions
	return q
}
