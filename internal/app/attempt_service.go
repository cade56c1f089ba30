package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttemptStore abstracts durable attempt persistence (in-memory, Postgres, etc).
// Implementations return attempts newest first and wrap backend failures with
// domain.ErrStoreUnavailable.
type AttemptStore interface {
	Insert(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error)
	// Delete removes the attempt if ownerID owns it. It returns
	// domain.ErrAttemptNotFound or domain.ErrNotOwner otherwise.
	Delete(ctx context.Context, attemptID, ownerID string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// QuizRepository is the read path to quiz content used when scoring.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// FeedRepository keeps the live attempt feeds of connected users.
type FeedRepository interface {
	GetOrCreate(userID string) *Feed
	Get(userID string) (*Feed, bool)
	DeleteIfEmpty(userID string)
}

// AttemptObserver is notified about recorded attempts (metrics, auditing).
type AttemptObserver interface {
	AttemptRecorded(attempt domain.Attempt)
}

// AttemptService scores, records and summarizes quiz attempts.
type AttemptService struct {
	store    AttemptStore
	quizzes  QuizRepository
	feeds    FeedRepository
	logger   *zap.Logger
	observer AttemptObserver
	now      func() time.Time
	newID    func() string
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithClock replaces the wall clock used for attempt timestamps.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

// WithObserver registers an observer for recorded attempts.
func WithObserver(o AttemptObserver) AttemptOption {
	return func(s *AttemptService) { s.observer = o }
}

func NewAttemptService(store AttemptStore, quizzes QuizRepository, feeds FeedRepository, logger *zap.Logger, opts ...AttemptOption) *AttemptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AttemptService{
		store:   store,
		quizzes: quizzes,
		feeds:   feeds,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit scores a finished play-through of quizID and records it for userID.
// Abandoned play-throughs never reach this point, so nothing partial is stored.
func (s *AttemptService) Submit(ctx context.Context, userID, quizID string, answers []domain.Answer, timeTaken int) (domain.Attempt, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Attempt{}, domain.Invalid("userId", "is required")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !quiz.Playable() {
		return domain.Attempt{}, domain.ErrQuizNotPlayable
	}
	if len(answers) != len(quiz.Questions) {
		return domain.Attempt{}, domain.Invalid("answers", fmt.Sprintf("must have %d entries, got %d", len(quiz.Questions), len(answers)))
	}
	for i, a := range answers {
		if a != domain.Unanswered && (a < 0 || int(a) >= len(quiz.Questions[i].Choices)) {
			return domain.Attempt{}, domain.Invalid("answers", fmt.Sprintf("entry %d is out of range", i))
		}
	}

	result := Score(quiz, answers)
	return s.Record(ctx, domain.Attempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Percentage:  result.Percentage,
		TimeTaken:   timeTaken,
	})
}

// Record validates and persists a completed attempt, assigning its id and
// creation time. A connected feed shows the attempt provisionally until the
// store confirms it.
func (s *AttemptService) Record(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	if err := validateAttempt(attempt); err != nil {
		return domain.Attempt{}, err
	}
	attempt.ID = s.newID()
	attempt.CreatedAt = s.now().UTC()

	feed, live := s.feeds.Get(attempt.UserID)
	var tempID string
	if live {
		tempID = feed.Provisional(attempt)
	}

	saved, err := s.store.Insert(ctx, attempt)
	if err != nil {
		if live {
			feed.Discard(tempID)
		}
		s.logger.Error("record attempt failed",
			zap.String("user_id", attempt.UserID),
			zap.String("quiz_id", attempt.QuizID),
			zap.Error(err))
		return domain.Attempt{}, err
	}
	if live {
		feed.Confirm(tempID, saved)
	}
	if s.observer != nil {
		s.observer.AttemptRecorded(saved)
	}
	s.logger.Info("attempt recorded",
		zap.String("attempt_id", saved.ID),
		zap.String("user_id", saved.UserID),
		zap.String("quiz_id", saved.QuizID),
		zap.Float64("percentage", saved.Percentage))
	return saved, nil
}

// List returns the attempts owned by userID, newest first.
func (s *AttemptService) List(ctx context.Context, userID string) ([]domain.Attempt, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Invalid("userId", "is required")
	}
	attempts, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if feed, ok := s.feeds.Get(userID); ok {
		feed.Replace(attempts)
	}
	return attempts, nil
}

// Stats aggregates the full attempt history of userID.
func (s *AttemptService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	attempts, err := s.List(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	return Aggregate(attempts), nil
}

// Delete irreversibly removes an attempt owned by requestingUserID.
func (s *AttemptService) Delete(ctx context.Context, attemptID, requestingUserID string) error {
	if strings.TrimSpace(attemptID) == "" {
		return domain.Invalid("attemptId", "is required")
	}
	if strings.TrimSpace(requestingUserID) == "" {
		return domain.ErrUnauthorized
	}
	if err := s.store.Delete(ctx, attemptID, requestingUserID); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			s.logger.Warn("attempt delete refused",
				zap.String("attempt_id", attemptID),
				zap.String("user_id", requestingUserID))
		}
		return err
	}
	if feed, ok := s.feeds.Get(requestingUserID); ok {
		feed.Remove(attemptID)
	}
	s.logger.Info("attempt deleted", zap.String("attempt_id", attemptID), zap.String("user_id", requestingUserID))
	return nil
}

// DeleteAll removes every attempt of userID and returns how many were removed.
func (s *AttemptService) DeleteAll(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrUnauthorized
	}
	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if feed, ok := s.feeds.Get(userID); ok {
		feed.Replace(nil)
	}
	s.logger.Info("attempts deleted", zap.String("user_id", userID), zap.Int("count", n))
	return n, nil
}

// Subscribe returns a channel of attempt-list snapshots for userID. The first
// value is the current list. The caller must invoke cancel to unsubscribe.
func (s *AttemptService) Subscribe(ctx context.Context, userID string) (<-chan domain.AttemptList, func(), error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, domain.ErrUnauthorized
	}
	for {
		feed := s.feeds.GetOrCreate(userID)
		if !feed.Loaded() {
			attempts, err := s.store.ListByUser(ctx, userID)
			if err != nil {
				s.feeds.DeleteIfEmpty(userID)
				return nil, nil, err
			}
			feed.Replace(attempts)
		}
		ch, unsubscribe := feed.Subscribe()

		// Another subscriber's cancel may have dropped the feed before we
		// joined it. Once subscribed it stays registered, so one check suffices.
		if current, ok := s.feeds.Get(userID); !ok || current != feed {
			unsubscribe()
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			continue
		}

		cancel := func() {
			unsubscribe()
			s.feeds.DeleteIfEmpty(userID)
		}
		return ch, cancel, nil
	}
}

func validateAttempt(a domain.Attempt) error {
	switch {
	case strings.TrimSpace(a.UserID) == "":
		return domain.Invalid("userId", "is required")
	case strings.TrimSpace(a.QuizID) == "":
		return domain.Invalid("quizId", "is required")
	case strings.TrimSpace(a.QuizTitle) == "":
		return domain.Invalid("quizTitle", "is required")
	case a.Score < 0:
		return domain.Invalid("score", "must not be negative")
	case a.TotalPoints <= 0:
		return domain.Invalid("totalPoints", "must be positive")
	case a.Score > a.TotalPoints:
		return domain.Invalid("score", "must not exceed totalPoints")
	case math.IsNaN(a.Percentage) || a.Percentage < 0:
		return domain.Invalid("percentage", "must not be negative")
	case math.Abs(a.Percentage-Percentage(a.Score, a.TotalPoints)) > percentageTolerance:
		return domain.Invalid("percentage", "does not match score/totalPoints")
	case a.TimeTaken < 0:
		return domain.Invalid("timeTaken", "must not be negative")
	}
	return nil
}

// percentageTolerance absorbs float noise on a value already rounded to 0.01.
const percentageTolerance = 0.01 + 1e-9
