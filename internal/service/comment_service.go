package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
)

type CommentService struct {
	commentRepo   repository.CommentRepository
	cardRepo      repository.CardRepository
	boardRepo     repository.BoardRepository
	workspaceRepo repository.WorkspaceRepository
	changeLog     repository.ChangeLogRepository
	notifier      Notifier
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	cardRepo repository.CardRepository,
	boardRepo repository.BoardRepository,
	workspaceRepo repository.WorkspaceRepository,
	changeLog repository.ChangeLogRepository,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		cardRepo:      cardRepo,
		boardRepo:     boardRepo,
		workspaceRepo: workspaceRepo,
		changeLog:     changeLog,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *CommentService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateCommentInput struct {
	CardID uuid.UUID `json:"card_id"`
	Text   string    `json:"text"`
}

// Create appends a comment. Comments are append-only; there is no edit or
// delete.
func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, input CreateCommentInput) (*domain.Comment, error) {
	card, err := s.cardRepo.GetByID(ctx, input.CardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	board, err := s.boardRepo.GetByID(ctx, card.BoardID)
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

	comment := &domain.Comment{
		ID:        uuid.New(),
		CardID:    card.ID,
		AuthorID:  userID,
		Text:      input.Text,
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionCommentCreated,
		Title:       card.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.CommentCreated(board.WorkspaceID, comment)
	}
	return comment, nil
}

func (s *CommentService) ListByCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.Comment, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	board, err := s.boardRepo.GetByID(ctx, card.BoardID)
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
	return s.commentRepo.ListByCard(ctx, cardID)
}
