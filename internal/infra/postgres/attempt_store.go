package postgres

import (
	"context"

	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists attempts in the attempts table.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

const attemptColumns = `id, user_id, quiz_id, quiz_title, score, total_points, percentage, time_taken, created_at`

func (s *AttemptStore) Insert(ctx context.Context, a domain.Attempt) (domain.Attempt, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (`+attemptColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.QuizID, a.QuizTitle, a.Score, a.TotalPoints, a.Percentage, a.TimeTaken, a.CreatedAt)
	if err != nil {
		return domain.Attempt{}, domain.Unavailable("insert attempt", err)
	}
	return a, nil
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, domain.Unavailable("list attempts", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizTitle, &a.Score, &a.TotalPoints, &a.Percentage, &a.TimeTaken, &a.CreatedAt); err != nil {
			return nil, domain.Unavailable("scan attempt", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list attempts", err)
	}
	return attempts, nil
}

// Delete removes the row only when ownerID matches, so a refused delete never touches it.
func (s *AttemptStore) Delete(ctx context.Context, attemptID, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attempts WHERE id=$1 AND user_id=$2`, attemptID, ownerID)
	if err != nil {
		return domain.Unavailable("delete attempt", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attempts WHERE id=$1)`, attemptID).Scan(&exists); err != nil {
		return domain.Unavailable("delete attempt", err)
	}
	if exists {
		return domain.ErrNotOwner
	}
	return domain.ErrAttemptNotFound
}

func (s *AttemptStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM attempts WHERE user_id=$1`, userID)
	if err != nil {
		return 0, domain.Unavailable("delete attempts", err)
	}
	return int(tag.RowsAffected()), nil
}
