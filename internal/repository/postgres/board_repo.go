package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/velebit-dev/boardsync/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	query := `
		INSERT INTO boards (id, workspace_id, title, visibility, revision, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.WorkspaceID, b.Title, b.Visibility, b.Revision, b.CreatedBy, b.CreatedAt,
	)
	return err
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	query := `SELECT id, workspace_id, title, visibility, revision, created_by, created_at FROM boards WHERE id = $1`
	var b domain.Board
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.WorkspaceID, &b.Title, &b.Visibility, &b.Revision, &b.CreatedBy, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &b, err
}

func (r *BoardRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Board, error) {
	query := `
		SELECT id, workspace_id, title, visibility, revision, created_by, created_at
		FROM boards
		WHERE workspace_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Title, &b.Visibility, &b.Revision, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	return err
}

func (r *BoardRepo) AddMember(ctx context.Context, m *domain.BoardMember) error {
	query := `
		INSERT INTO board_members (board_id, user_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (board_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, m.BoardID, m.UserID, m.AddedAt)
	return err
}

func (r *BoardRepo) IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM board_members WHERE board_id = $1 AND user_id = $2)`,
		boardID, userID,
	).Scan(&ok)
	return ok, err
}

func (r *BoardRepo) SyncWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	query := `
		INSERT INTO board_members (board_id, user_id, added_at)
		SELECT b.id, $2, now()
		FROM boards b
		WHERE b.workspace_id = $1
		ON CONFLICT (board_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, workspaceID, userID)
	return err
}
