package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
)

var ErrBoardNotFound = errors.New("board not found")

const activityLimit = 20

type BoardService struct {
	boardRepo     repository.BoardRepository
	listRepo      repository.ListRepository
	cardRepo      repository.CardRepository
	workspaceRepo repository.WorkspaceRepository
	changeLog     repository.ChangeLogRepository
	notifier      Notifier
}

func NewBoardService(
	boardRepo repository.BoardRepository,
	listRepo repository.ListRepository,
	cardRepo repository.CardRepository,
	workspaceRepo repository.WorkspaceRepository,
	changeLog repository.ChangeLogRepository,
) *BoardService {
	return &BoardService{
		boardRepo:     boardRepo,
		listRepo:      listRepo,
		cardRepo:      cardRepo,
		workspaceRepo: workspaceRepo,
		changeLog:     changeLog,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *BoardService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateBoardInput struct {
	Title       string    `json:"title"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Visibility  string    `json:"visibility"`
}

// Create seeds the new board's member set from the current workspace
// membership.
func (s *BoardService) Create(ctx context.Context, userID uuid.UUID, input CreateBoardInput) (*domain.Board, error) {
	member, err := s.workspaceRepo.GetMember(ctx, input.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityWorkspace
	}

	board := &domain.Board{
		ID:          uuid.New(),
		WorkspaceID: input.WorkspaceID,
		Title:       input.Title,
		Visibility:  visibility,
		Revision:    0,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}
	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, fmt.Errorf("creating board: %w", err)
	}

	members, err := s.workspaceRepo.ListMembers(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		bm := &domain.BoardMember{BoardID: board.ID, UserID: m.UserID, AddedAt: time.Now()}
		if err := s.boardRepo.AddMember(ctx, bm); err != nil {
			return nil, fmt.Errorf("seeding board member: %w", err)
		}
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionBoardCreated,
		Title:       board.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.BoardCreated(board.WorkspaceID, board)
	}
	return board, nil
}

// ListByWorkspace returns the workspace's boards visible to the caller:
// workspace-visible boards plus private boards the caller belongs to.
func (s *BoardService) ListByWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Board, error) {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	boards, err := s.boardRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	visible := boards[:0]
	for _, b := range boards {
		if b.Visibility != domain.VisibilityPrivate {
			visible = append(visible, b)
			continue
		}
		ok, err := s.boardRepo.IsMember(ctx, b.ID, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// Delete cascades the board's cards and lists before the board row.
func (s *BoardService) Delete(ctx context.Context, userID, boardID uuid.UUID) error {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return err
	}
	if board == nil {
		return ErrBoardNotFound
	}

	member, err := s.workspaceRepo.GetMember(ctx, board.WorkspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotMember
	}

	if err := s.cardRepo.DeleteByBoard(ctx, boardID); err != nil {
		return fmt.Errorf("deleting cards: %w", err)
	}
	if err := s.listRepo.DeleteByBoard(ctx, boardID); err != nil {
		return fmt.Errorf("deleting lists: %w", err)
	}
	if err := s.boardRepo.Delete(ctx, boardID); err != nil {
		return fmt.Errorf("deleting board: %w", err)
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionBoardDeleted,
		Title:       board.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.BoardDeleted(board.WorkspaceID, board.ID)
	}
	return nil
}

// Activity returns the board's recent change-log entries, newest first.
func (s *BoardService) Activity(ctx context.Context, userID, boardID uuid.UUID) ([]domain.ChangeLogEntry, error) {
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

	return s.changeLog.RecentByBoard(ctx, boardID, activityLimit)
}

// State returns the boards and position-sorted cards a realtime session
// needs to render a workspace after joining its room.
func (s *BoardService) State(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Board, []domain.Card, error) {
	boards, err := s.ListByWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, len(boards))
	for i, b := range boards {
		ids[i] = b.ID
	}
	cards, err := s.cardRepo.ListByBoards(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return boards, cards, nil
}
