package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) CardCreated(workspaceID uuid.UUID, card *domain.Card) {
	n.emit(EventTypeCardCreated, workspaceID, CardCreatedPayload{Card: *card})
}

func (n *HubNotifier) CardMoved(workspaceID, cardID, newBoardID uuid.UUID, newPosition int) {
	n.emit(EventTypeCardMoved, workspaceID, CardMovedPayload{
		CardID:      cardID,
		NewBoardID:  newBoardID,
		NewPosition: newPosition,
	})
}

func (n *HubNotifier) CardDeleted(workspaceID, cardID, boardID uuid.UUID) {
	n.emit(EventTypeCardDeleted, workspaceID, CardDeletedPayload{CardID: cardID, BoardID: boardID})
}

func (n *HubNotifier) BoardCreated(workspaceID uuid.UUID, board *domain.Board) {
	n.emit(EventTypeBoardCreated, workspaceID, BoardCreatedPayload{Board: *board})
}

func (n *HubNotifier) BoardDeleted(workspaceID, boardID uuid.UUID) {
	n.emit(EventTypeBoardDeleted, workspaceID, BoardDeletedPayload{BoardID: boardID})
}

func (n *HubNotifier) ListCreated(workspaceID uuid.UUID, list *domain.List) {
	n.emit(EventTypeListCreated, workspaceID, ListCreatedPayload{List: *list})
}

func (n *HubNotifier) ListMoved(workspaceID, listID, boardID uuid.UUID, newPosition int) {
	n.emit(EventTypeListMoved, workspaceID, ListMovedPayload{
		ListID:      listID,
		BoardID:     boardID,
		NewPosition: newPosition,
	})
}

func (n *HubNotifier) CommentCreated(workspaceID uuid.UUID, comment *domain.Comment) {
	n.emit(EventTypeCommentCreated, workspaceID, CommentCreatedPayload{Comment: *comment})
}

func (n *HubNotifier) UserInvited(workspaceID, userID uuid.UUID) {
	n.emit(EventTypeUserInvited, workspaceID, UserInvitedPayload{UserID: userID, WorkspaceID: workspaceID})
}

func (n *HubNotifier) emit(eventType string, workspaceID uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, &workspaceID, payload)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToWorkspace(workspaceID, evt)
}
