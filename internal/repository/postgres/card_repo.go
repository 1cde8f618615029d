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

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `id, board_id, list_id, title, description, labels, assignees, due_date, position, created_by, created_at, updated_at`

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.BoardID, c.ListID, c.Title, c.Description, c.Labels,
		assigneeStrings(c.Assignees), c.DueDate, c.Position, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	c, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE board_id = $1 ORDER BY position, id`
	rows, err := r.pool.Query(ctx, query, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *CardRepo) ListByBoards(ctx context.Context, boardIDs []uuid.UUID) ([]domain.Card, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + cardColumns + ` FROM cards WHERE board_id = ANY($1) ORDER BY board_id, position, id`
	rows, err := r.pool.Query(ctx, query, boardIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *CardRepo) Search(ctx context.Context, boardID uuid.UUID, query string) ([]domain.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards
		WHERE board_id = $1 AND (title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY position, id`
	rows, err := r.pool.Query(ctx, q, boardID, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCards(rows)
}

func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	return err
}

func (r *CardRepo) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE board_id = $1`, boardID)
	return err
}

// ApplyMove commits a move: every placement plus every guarded board's
// revision bump happen in one transaction, each guard a compare-and-swap on
// that board's revision so concurrent movers cannot interleave position
// writes on either side of a cross-board move.
func (r *CardRepo) ApplyMove(ctx context.Context, revisions []repository.BoardRevision, placements []repository.CardPlacement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, rev := range revisions {
		tag, err := tx.Exec(ctx,
			`UPDATE boards SET revision = revision + 1 WHERE id = $1 AND revision = $2`,
			rev.BoardID, rev.Revision,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrRevisionConflict
		}
	}

	for _, p := range placements {
		_, err := tx.Exec(ctx,
			`UPDATE cards SET board_id = $1, position = $2, updated_at = now() WHERE id = $3`,
			p.BoardID, p.Position, p.CardID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	var assignees []string
	err := row.Scan(
		&c.ID, &c.BoardID, &c.ListID, &c.Title, &c.Description, &c.Labels,
		&assignees, &c.DueDate, &c.Position, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Assignees = make([]uuid.UUID, 0, len(assignees))
	for _, s := range assignees {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		c.Assignees = append(c.Assignees, id)
	}
	return &c, nil
}

func collectCards(rows pgx.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func assigneeStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
