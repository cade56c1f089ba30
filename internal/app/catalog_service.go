package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuizCatalog is the CRUD repository behind quiz definitions. Writes are last-write-wins per id.
type QuizCatalog interface {
	Create(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, quizID string) (domain.Quiz, error)
	Update(ctx context.Context, quiz domain.Quiz) error
	Delete(ctx context.Context, quizID string) error
	List(ctx context.Context) ([]domain.Quiz, error)
}

// QuizCache is a read-through cache in front of the catalog.
type QuizCache interface {
	QuizRepository
	Invalidate(ctx context.Context, quizID string) error
}

// QuestionSource fetches questions from an external trivia provider.
type QuestionSource interface {
	Questions(ctx context.Context, query domain.ImportQuery) ([]domain.Question, error)
}

var errQuestionSourceMissing = domain.Upstream("import questions", errors.New("no question source configured"))

// CatalogService exposes owner-scoped quiz management.
type CatalogService struct {
	catalog QuizCatalog
	cache   QuizCache
	source  QuestionSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalogService wires the catalog. cache and source may be nil.
func NewCatalogService(catalog QuizCatalog, cache QuizCache, source QuestionSource, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, cache: cache, source: source, logger: logger, now: time.Now}
}

// Create stores a new quiz owned by ownerID.
func (s *CatalogService) Create(ctx context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	if err := validateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now().UTC()
	quiz.ID = uuid.NewString()
	quiz.OwnerID = ownerID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.catalog.Create(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.logger.Info("quiz created", zap.String("quiz_id", quiz.ID), zap.String("owner_id", ownerID))
	return quiz, nil
}

// Get returns a quiz visible to userID: any published quiz, or the user's own drafts.
func (s *CatalogService) Get(ctx context.Context, userID, quizID string) (domain.Quiz, error) {
	quiz, err := s.catalog.Get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !quiz.Published && quiz.OwnerID != userID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// Update replaces an existing quiz owned by userID.
func (s *CatalogService) Update(ctx context.Context, userID string, quiz domain.Quiz) (domain.Quiz, error) {
	if err := validateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	current, err := s.owned(ctx, userID, quiz.ID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.OwnerID = current.OwnerID
	quiz.CreatedAt = current.CreatedAt
	quiz.UpdatedAt = s.now().UTC()
	if err := s.catalog.Update(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quiz.ID)
	return quiz, nil
}

// Delete removes a quiz owned by userID. Past attempts keep their title snapshot.
func (s *CatalogService) Delete(ctx context.Context, userID, quizID string) error {
	if _, err := s.owned(ctx, userID, quizID); err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	s.logger.Info("quiz deleted", zap.String("quiz_id", quizID), zap.String("owner_id", userID))
	return nil
}

// List returns published quizzes and the caller's own drafts, ordered by title.
func (s *CatalogService) List(ctx context.Context, userID string) ([]domain.Quiz, error) {
	all, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]domain.Quiz, 0, len(all))
	for _, q := range all {
		if q.Published || (userID != "" && q.OwnerID == userID) {
			visible = append(visible, q)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return strings.ToLower(visible[i].Title) < strings.ToLower(visible[j].Title)
	})
	return visible, nil
}

// Import creates an unpublished quiz for ownerID from externally sourced questions.
func (s *CatalogService) Import(ctx context.Context, ownerID, title string, query domain.ImportQuery) (domain.Quiz, error) {
	if s.source == nil {
		return domain.Quiz{}, errQuestionSourceMissing
	}
	questions, err := s.source.Questions(ctx, query)
	if err != nil {
		return domain.Quiz{}, domain.Upstream("import questions", err)
	}
	if strings.TrimSpace(title) == "" {
		title = "Imported quiz"
	}
	return s.Create(ctx, ownerID, domain.Quiz{
		Title:     title,
		Published: false,
		Questions: questions,
	})
}

// Preview fetches questions from the external source without storing anything.
func (s *CatalogService) Preview(ctx context.Context, query domain.ImportQuery) ([]domain.Question, error) {
	if s.source == nil {
		return nil, errQuestionSourceMissing
	}
	questions, err := s.source.Questions(ctx, query)
	if err != nil {
		return nil, domain.Upstream("preview questions", err)
	}
	return questions, nil
}

func (s *CatalogService) owned(ctx context.Context, userID, quizID string) (domain.Quiz, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Quiz{}, domain.ErrUnauthorized
	}
	quiz, err := s.catalog.Get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != userID {
		if !quiz.Published {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, domain.ErrNotOwner
	}
	return quiz, nil
}

func (s *CatalogService) invalidate(ctx context.Context, quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.logger.Warn("quiz cache invalidation failed", zap.String("quiz_id", quizID), zap.Error(err))
	}
}

func validateQuiz(q domain.Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return domain.Invalid("title", "is required")
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Prompt) == "" {
			return domain.Invalid(fmt.Sprintf("questions[%d].prompt", i), "is required")
		}
		if len(question.Choices) < 2 {
			return domain.Invalid(fmt.Sprintf("questions[%d].choices", i), "needs at least 2 entries")
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Choices) {
			return domain.Invalid(fmt.Sprintf("questions[%d].correctIndex", i), "is out of range")
		}
		if question.Points < 0 {
			return domain.Invalid(fmt.Sprintf("questions[%d].points", i), "must not be negative")
		}
	}
	if q.Published && len(q.Questions) == 0 {
		return domain.Invalid("questions", "a published quiz needs at least one question")
	}
	return nil
}
