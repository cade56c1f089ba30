package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/uptrace/bun"
)

// quizRow keeps the full quiz document in JSONB next to the columns used for filtering.
type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	OwnerID   string      `bun:"owner_id,notnull"`
	Published bool        `bun:"published,notnull"`
	Data      domain.Quiz `bun:"data,type:jsonb"`
	CreatedAt time.Time   `bun:"created_at,notnull"`
	UpdatedAt time.Time   `bun:"updated_at,notnull"`
}

func toRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:        q.ID,
		OwnerID:   q.OwnerID,
		Published: q.Published,
		Data:      q,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

// QuizCatalog stores quizzes in Postgres through bun.
type QuizCatalog struct {
	db *bun.DB
}

func NewQuizCatalog(db *bun.DB) *QuizCatalog {
	return &QuizCatalog{db: db}
}

func (c *QuizCatalog) Create(ctx context.Context, quiz domain.Quiz) error {
	if _, err := c.db.NewInsert().Model(toRow(quiz)).Exec(ctx); err != nil {
		return domain.Unavailable("create quiz", err)
	}
	return nil
}

func (c *QuizCatalog) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := c.db.NewSelect().Model(row).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.Unavailable("load quiz", err)
	}
	return row.Data, nil
}

func (c *QuizCatalog) Update(ctx context.Context, quiz domain.Quiz) error {
	res, err := c.db.NewUpdate().Model(toRow(quiz)).
		Column("owner_id", "published", "data", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Unavailable("update quiz", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (c *QuizCatalog) Delete(ctx context.Context, quizID string) error {
	res, err := c.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return domain.Unavailable("delete quiz", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (c *QuizCatalog) List(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := c.db.NewSelect().Model(&rows).Order("updated_at DESC").Scan(ctx); err != nil {
		return nil, domain.Unavailable("list quizzes", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.Data)
	}
	return quizzes, nil
}

// LoadQuiz lets the catalog act as the loader behind a quiz cache.
func (c *QuizCatalog) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return c.Get(ctx, quizID)
}
