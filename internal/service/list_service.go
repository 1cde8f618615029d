package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/ranking"
	"github.com/velebit-dev/boardsync/internal/repository"
)

var ErrListNotFound = errors.New("list not found")

type ListService struct {
	listRepo      repository.ListRepository
	boardRepo     repository.BoardRepository
	workspaceRepo repository.WorkspaceRepository
	changeLog     repository.ChangeLogRepository
	notifier      Notifier
}

func NewListService(
	listRepo repository.ListRepository,
	boardRepo repository.BoardRepository,
	workspaceRepo repository.WorkspaceRepository,
	changeLog repository.ChangeLogRepository,
) *ListService {
	return &ListService{
		listRepo:      listRepo,
		boardRepo:     boardRepo,
		workspaceRepo: workspaceRepo,
		changeLog:     changeLog,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ListService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateListInput struct {
	Title   string    `json:"title"`
	BoardID uuid.UUID `json:"board_id"`
}

type MoveListInput struct {
	NewPosition int `json:"new_position"`
}

func (s *ListService) Create(ctx context.Context, userID uuid.UUID, input CreateListInput) (*domain.List, error) {
	board, err := s.memberBoard(ctx, userID, input.BoardID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.listRepo.ListByBoard(ctx, board.ID)
	if err != nil {
		return nil, err
	}

	list := &domain.List{
		ID:        uuid.New(),
		BoardID:   board.ID,
		Title:     input.Title,
		Position:  ranking.PositionForAppend(len(siblings)),
		CreatedAt: time.Now(),
	}
	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionListCreated,
		Title:       list.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ListCreated(board.WorkspaceID, list)
	}
	return list, nil
}

func (s *ListService) ListByBoard(ctx context.Context, userID, boardID uuid.UUID) ([]domain.List, error) {
	if _, err := s.memberBoard(ctx, userID, boardID); err != nil {
		return nil, err
	}
	return s.listRepo.ListByBoard(ctx, boardID)
}

// Move repositions a list among its board's lists, under the same revision
// guard card moves use.
func (s *ListService) Move(ctx context.Context, userID, listID uuid.UUID, input MoveListInput) (*domain.List, error) {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}

	board, err := s.memberBoard(ctx, userID, list.BoardID)
	if err != nil {
		return nil, err
	}

	var finalPos int
	for attempt := 0; ; attempt++ {
		if attempt == moveMaxAttempts {
			return nil, ErrMoveConflict
		}

		siblings, err := s.listRepo.ListByBoard(ctx, board.ID)
		if err != nil {
			return nil, err
		}
		items := make([]ranking.Item, 0, len(siblings))
		for _, l := range siblings {
			if l.ID != listID {
				items = append(items, ranking.Item{ID: l.ID, Position: l.Position})
			}
		}
		finalPos = ranking.PositionForInsert(input.NewPosition, len(items))
		items = ranking.InsertAt(items, ranking.Item{ID: listID}, finalPos)

		moves := make([]repository.ListPlacement, len(items))
		for i, it := range items {
			moves[i] = repository.ListPlacement{ListID: it.ID, Position: it.Position}
		}

		err = s.listRepo.Reorder(ctx, board.ID, board.Revision, moves)
		if errors.Is(err, repository.ErrRevisionConflict) {
			board, err = s.boardRepo.GetByID(ctx, board.ID)
			if err != nil {
				return nil, err
			}
			if board == nil {
				return nil, ErrBoardNotFound
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reordering lists: %w", err)
		}
		break
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionListMoved,
		Title:       list.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ListMoved(board.WorkspaceID, list.ID, board.ID, finalPos)
	}

	list.Position = finalPos
	return list, nil
}

func (s *ListService) memberBoard(ctx context.Context, userID, boardID uuid.UUID) (*domain.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	member, err := s.workspaceRepo.GetMember(ctx, board.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return board, nil
}
