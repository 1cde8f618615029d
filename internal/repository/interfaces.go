package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
)

// ErrRevisionConflict is returned when a move's compare-and-swap against a
// board revision loses to a concurrent writer.
var ErrRevisionConflict = errors.New("board revision conflict")

// BoardRevision is one compare-and-swap guard inside a move commit. A
// cross-board move guards both the source and the destination board so a
// stale sibling snapshot on either side fails the whole commit.
type BoardRevision struct {
	BoardID  uuid.UUID
	Revision int64
}

// CardPlacement is one (card, container, rank) write inside a move or
// renumber.
type CardPlacement struct {
	CardID   uuid.UUID
	BoardID  uuid.UUID
	Position int
}

// ListPlacement is the list counterpart of CardPlacement.
type ListPlacement struct {
	ListID   uuid.UUID
	Position int
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *domain.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error)
	ListIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *domain.WorkspaceMember) error
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]domain.WorkspaceMember, error)
}

type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *domain.BoardMember) error
	IsMember(ctx context.Context, boardID, userID uuid.UUID) (bool, error)
	// SyncWorkspaceMember adds the user to every board of the workspace,
	// skipping boards they already belong to.
	SyncWorkspaceMember(ctx context.Context, workspaceID, userID uuid.UUID) error
}

type ListRepository interface {
	Create(ctx context.Context, list *domain.List) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.List, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]domain.List, error)
	DeleteByBoard(ctx context.Context, boardID uuid.UUID) error
	// Reorder writes the given ranks and bumps the board's revision from
	// expectedRevision in one transaction. ErrRevisionConflict on mismatch.
	Reorder(ctx context.Context, boardID uuid.UUID, expectedRevision int64, placements []ListPlacement) error
}

type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]domain.Card, error)
	ListByBoards(ctx context.Context, boardIDs []uuid.UUID) ([]domain.Card, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByBoard(ctx context.Context, boardID uuid.UUID) error
	// Search returns the board's cards whose title or description contains
	// the query, case-insensitively, in rank order.
	Search(ctx context.Context, boardID uuid.UUID, query string) ([]domain.Card, error)
	// ApplyMove writes the given placements and bumps every guarded board's
	// revision from its expected value, all in one transaction.
	// ErrRevisionConflict if any guard mismatches; nothing is written then.
	ApplyMove(ctx context.Context, revisions []BoardRevision, placements []CardPlacement) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]domain.Comment, error)
}

type ChangeLogRepository interface {
	Append(ctx context.Context, entry *domain.ChangeLogEntry) error
	RecentByWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error)
	RecentByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error)
	DeleteByWorkspace(ctx context.Context, workspaceID uuid.UUID) error
}
