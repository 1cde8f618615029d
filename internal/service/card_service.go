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

var (
	ErrCardNotFound = errors.New("card not found")
	// ErrMoveConflict is returned when a move keeps losing the revision
	// compare-and-swap to concurrent movers.
	ErrMoveConflict = errors.New("concurrent move conflict, retry")
)

const moveMaxAttempts = 3

// CardService is the move coordinator: it validates a request against
// current state, recomputes sibling positions, persists, and emits the
// broadcast event.
type CardService struct {
	cardRepo      repository.CardRepository
	boardRepo     repository.BoardRepository
	workspaceRepo repository.WorkspaceRepository
	changeLog     repository.ChangeLogRepository
	notifier      Notifier
}

func NewCardService(
	cardRepo repository.CardRepository,
	boardRepo repository.BoardRepository,
	workspaceRepo repository.WorkspaceRepository,
	changeLog repository.ChangeLogRepository,
) *CardService {
	return &CardService{
		cardRepo:      cardRepo,
		boardRepo:     boardRepo,
		workspaceRepo: workspaceRepo,
		changeLog:     changeLog,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *CardService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateCardInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	BoardID     uuid.UUID   `json:"board_id"`
	Position    *int        `json:"position,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
	Assignees   []uuid.UUID `json:"assignees,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
}

type MoveCardInput struct {
	NewBoardID  uuid.UUID `json:"new_board_id"`
	NewPosition int       `json:"new_position"`
}

// Create places the card at the requested position, or appends when none is
// given. A mid-container insert shifts the following siblings.
func (s *CardService) Create(ctx context.Context, userID uuid.UUID, input CreateCardInput) (*domain.Card, error) {
	board, err := s.memberBoard(ctx, userID, input.BoardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	card := &domain.Card{
		ID:          uuid.New(),
		BoardID:     board.ID,
		Title:       input.Title,
		Description: input.Description,
		Labels:      input.Labels,
		Assignees:   input.Assignees,
		DueDate:     input.DueDate,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if card.Labels == nil {
		card.Labels = []string{}
	}
	if card.Assignees == nil {
		card.Assignees = []uuid.UUID{}
	}

	for attempt := 0; attempt < moveMaxAttempts; attempt++ {
		siblings, err := s.cardRepo.ListByBoard(ctx, board.ID)
		if err != nil {
			return nil, err
		}

		index := ranking.PositionForAppend(len(siblings))
		if input.Position != nil {
			index = ranking.PositionForInsert(*input.Position, len(siblings))
		}
		card.Position = index

		if attempt == 0 {
			if err := s.cardRepo.Create(ctx, card); err != nil {
				return nil, fmt.Errorf("creating card: %w", err)
			}
		}

		items := itemsExcluding(siblings, card.ID)
		items = ranking.InsertAt(items, ranking.Item{ID: card.ID}, index)
		guards := []repository.BoardRevision{{BoardID: board.ID, Revision: board.Revision}}
		err = s.cardRepo.ApplyMove(ctx, guards, placements(items, board.ID))
		if errors.Is(err, repository.ErrRevisionConflict) {
			if board, err = s.reloadBoard(ctx, board.ID); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("placing card: %w", err)
		}

		entry := &domain.ChangeLogEntry{
			ID:          uuid.New(),
			WorkspaceID: board.WorkspaceID,
			BoardID:     &board.ID,
			Action:      domain.ActionCardCreated,
			Title:       card.Title,
			ActorID:     userID,
			Timestamp:   time.Now(),
		}
		if err := s.changeLog.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("appending change log: %w", err)
		}

		if s.notifier != nil {
			s.notifier.CardCreated(board.WorkspaceID, card)
		}
		return card, nil
	}
	return nil, ErrMoveConflict
}

// ListByBoard returns the board's cards sorted by rank.
func (s *CardService) ListByBoard(ctx context.Context, userID, boardID uuid.UUID) ([]domain.Card, error) {
	if _, err := s.memberBoard(ctx, userID, boardID); err != nil {
		return nil, err
	}
	return s.cardRepo.ListByBoard(ctx, boardID)
}

// Search returns the board's cards matching the query in title or
// description, case-insensitively.
func (s *CardService) Search(ctx context.Context, userID, boardID uuid.UUID, query string) ([]domain.Card, error) {
	if _, err := s.memberBoard(ctx, userID, boardID); err != nil {
		return nil, err
	}
	return s.cardRepo.Search(ctx, boardID, query)
}

// Move transitions the card to the requested container and rank. The write
// is guarded by a compare-and-swap on the destination board's revision (and
// the source board's, when they differ) and retried with freshly recomputed
// positions when a concurrent mover wins either guard.
func (s *CardService) Move(ctx context.Context, userID, cardID uuid.UUID, input MoveCardInput) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	fromBoardID := card.BoardID

	dest, err := s.memberBoard(ctx, userID, input.NewBoardID)
	if err != nil {
		return nil, err
	}
	var src *domain.Board
	if fromBoardID != dest.ID {
		if src, err = s.memberBoard(ctx, userID, fromBoardID); err != nil {
			return nil, err
		}
	}

	var finalPos int
	for attempt := 0; ; attempt++ {
		if attempt == moveMaxAttempts {
			return nil, ErrMoveConflict
		}

		destCards, err := s.cardRepo.ListByBoard(ctx, dest.ID)
		if err != nil {
			return nil, err
		}
		destItems := itemsExcluding(destCards, card.ID)
		finalPos = ranking.PositionForInsert(input.NewPosition, len(destItems))
		destItems = ranking.InsertAt(destItems, ranking.Item{ID: card.ID}, finalPos)
		moves := placements(destItems, dest.ID)

		guards := []repository.BoardRevision{{BoardID: dest.ID, Revision: dest.Revision}}
		if src != nil {
			srcCards, err := s.cardRepo.ListByBoard(ctx, fromBoardID)
			if err != nil {
				return nil, err
			}
			srcItems := itemsExcluding(srcCards, card.ID)
			ranking.Renumber(srcItems)
			moves = append(moves, placements(srcItems, fromBoardID)...)
			guards = append(guards, repository.BoardRevision{BoardID: src.ID, Revision: src.Revision})
		}

		err = s.cardRepo.ApplyMove(ctx, guards, moves)
		if errors.Is(err, repository.ErrRevisionConflict) {
			if dest, err = s.reloadBoard(ctx, dest.ID); err != nil {
				return nil, err
			}
			if src != nil {
				if src, err = s.reloadBoard(ctx, fromBoardID); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("applying move: %w", err)
		}
		break
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: dest.WorkspaceID,
		BoardID:     &dest.ID,
		Action:      domain.ActionCardMoved,
		Title:       card.Title,
		FromBoardID: &fromBoardID,
		ToBoardID:   &dest.ID,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.CardMoved(dest.WorkspaceID, card.ID, dest.ID, finalPos)
	}

	moved, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if moved == nil {
		return nil, ErrCardNotFound
	}
	return moved, nil
}

// Delete removes the card and renumbers the surviving siblings.
func (s *CardService) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card == nil {
		return ErrCardNotFound
	}

	board, err := s.memberBoard(ctx, userID, card.BoardID)
	if err != nil {
		return err
	}

	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		return fmt.Errorf("deleting card: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if attempt == moveMaxAttempts {
			return ErrMoveConflict
		}
		siblings, err := s.cardRepo.ListByBoard(ctx, board.ID)
		if err != nil {
			return err
		}
		items := itemsExcluding(siblings, cardID)
		ranking.Renumber(items)
		guards := []repository.BoardRevision{{BoardID: board.ID, Revision: board.Revision}}
		err = s.cardRepo.ApplyMove(ctx, guards, placements(items, board.ID))
		if errors.Is(err, repository.ErrRevisionConflict) {
			if board, err = s.reloadBoard(ctx, board.ID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("renumbering siblings: %w", err)
		}
		break
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: board.WorkspaceID,
		BoardID:     &board.ID,
		Action:      domain.ActionCardDeleted,
		Title:       card.Title,
		ActorID:     userID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.CardDeleted(board.WorkspaceID, card.ID, board.ID)
	}
	return nil
}

// memberBoard resolves the board and requires the user to be a member of its
// owning workspace. Membership, not card authorship, is the single move
// policy.
func (s *CardService) memberBoard(ctx context.Context, userID, boardID uuid.UUID) (*domain.Board, error) {
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

func (s *CardService) reloadBoard(ctx context.Context, boardID uuid.UUID) (*domain.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, ErrBoardNotFound
	}
	return board, nil
}

func itemsExcluding(cards []domain.Card, exclude uuid.UUID) []ranking.Item {
	items := make([]ranking.Item, 0, len(cards))
	for _, c := range cards {
		if c.ID != exclude {
			items = append(items, ranking.Item{ID: c.ID, Position: c.Position})
		}
	}
	return items
}

func placements(items []ranking.Item, boardID uuid.UUID) []repository.CardPlacement {
	out := make([]repository.CardPlacement, len(items))
	for i, it := range items {
		out[i] = repository.CardPlacement{CardID: it.ID, BoardID: boardID, Position: it.Position}
	}
	return out
}
