package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/velebit-dev/boardsync/internal/domain"
)

type ChangeLogRepo struct {
	pool *pgxpool.Pool
}

func NewChangeLogRepo(pool *pgxpool.Pool) *ChangeLogRepo {
	return &ChangeLogRepo{pool: pool}
}

func (r *ChangeLogRepo) Append(ctx context.Context, e *domain.ChangeLogEntry) error {
	query := `
		INSERT INTO change_log (id, workspace_id, board_id, action, title, from_board_id, to_board_id, actor_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.WorkspaceID, e.BoardID, e.Action, e.Title, e.FromBoardID, e.ToBoardID, e.ActorID, e.Timestamp,
	)
	return err
}

func (r *ChangeLogRepo) RecentByWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error) {
	query := `
		SELECT cl.id, cl.workspace_id, cl.board_id, cl.action, cl.title, cl.from_board_id, cl.to_board_id, cl.actor_id, cl.timestamp, u.name
		FROM change_log cl
		JOIN users u ON cl.actor_id = u.id
		WHERE cl.workspace_id = $1
		ORDER BY cl.timestamp DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, workspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *ChangeLogRepo) RecentByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error) {
	query := `
		SELECT cl.id, cl.workspace_id, cl.board_id, cl.action, cl.title, cl.from_board_id, cl.to_board_id, cl.actor_id, cl.timestamp, u.name
		FROM change_log cl
		JOIN users u ON cl.actor_id = u.id
		WHERE cl.board_id = $1 OR cl.from_board_id = $1 OR cl.to_board_id = $1
		ORDER BY cl.timestamp DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, boardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *ChangeLogRepo) DeleteByWorkspace(ctx context.Context, workspaceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM change_log WHERE workspace_id = $1`, workspaceID)
	return err
}

func collectEntries(rows pgx.Rows) ([]domain.ChangeLogEntry, error) {
	var entries []domain.ChangeLogEntry
	for rows.Next() {
		var e domain.ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.BoardID, &e.Action, &e.Title, &e.FromBoardID, &e.ToBoardID, &e.ActorID, &e.Timestamp, &e.ActorName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
