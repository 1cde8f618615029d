package service

import (
	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
)

// Notifier broadcasts domain events to every realtime session joined to the
// workspace room. Delivery is fire-and-forget: services never observe a
// broadcast failure.
type Notifier interface {
	CardCreated(workspaceID uuid.UUID, card *domain.Card)
	CardMoved(workspaceID, cardID, newBoardID uuid.UUID, newPosition int)
	CardDeleted(workspaceID, cardID, boardID uuid.UUID)
	BoardCreated(workspaceID uuid.UUID, board *domain.Board)
	BoardDeleted(workspaceID, boardID uuid.UUID)
	ListCreated(workspaceID uuid.UUID, list *domain.List)
	ListMoved(workspaceID, listID, boardID uuid.UUID, newPosition int)
	CommentCreated(workspaceID uuid.UUID, comment *domain.Comment)
	UserInvited(workspaceID, userID uuid.UUID)
}
