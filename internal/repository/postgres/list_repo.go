package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
)

type ListRepo struct {
	pool *pgxpool.Pool
}

func NewListRepo(pool *pgxpool.Pool) *ListRepo {
	return &ListRepo{pool: pool}
}

func (r *ListRepo) Create(ctx context.Context, l *domain.List) error {
	query := `
		INSERT INTO lists (id, board_id, title, position, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, l.ID, l.BoardID, l.Title, l.Position, l.CreatedAt)
	return err
}

func (r *ListRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.List, error) {
	query := `SELECT id, board_id, title, position, created_at FROM lists WHERE id = $1`
	var l domain.List
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &l, err
}

func (r *ListRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]domain.List, error) {
	query := `SELECT id, board_id, title, position, created_at FROM lists WHERE board_id = $1 ORDER BY position, id`
	rows, err := r.pool.Query(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.List
	for rows.Next() {
		var l domain.List
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (r *ListRepo) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lists WHERE board_id = $1`, boardID)
	return err
}

// Reorder shares the board revision guard with card moves: list and card
// reordering contend on the same container.
func (r *ListRepo) Reorder(ctx context.Context, boardID uuid.UUID, expectedRevision int64, placements []repository.ListPlacement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE boards SET revision = revision + 1 WHERE id = $1 AND revision = $2`,
		boardID, expectedRevision,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRevisionConflict
	}

	for _, p := range placements {
		if _, err := tx.Exec(ctx, `UPDATE lists SET position = $1 WHERE id = $2`, p.Position, p.ListID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
