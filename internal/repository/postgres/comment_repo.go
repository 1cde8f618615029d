package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/velebit-dev/boardsync/internal/domain"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, card_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, c.ID, c.CardID, c.AuthorID, c.Text, c.CreatedAt)
	return err
}

func (r *CommentRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.Comment, error) {
	query := `
		SELECT c.id, c.card_id, c.author_id, c.text, c.created_at, u.name
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.card_id = $1
		ORDER BY c.created_at`

	rows, err := r.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.CardID, &c.AuthorID, &c.Text, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
