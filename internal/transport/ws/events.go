package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeAuthenticate   = "authenticate"
	EventTypeJoinWorkspace  = "join_workspace"
	EventTypeLeaveWorkspace = "leave_workspace"
	EventTypePing           = "ping"
)

// Event types carried both ways: clients may mirror a confirmed mutation
// into the room, and the server broadcasts them after its own writes.
const (
	EventTypeCardCreated    = "card_created"
	EventTypeCardMoved      = "card_moved"
	EventTypeCardDeleted    = "card_deleted"
	EventTypeBoardCreated   = "board_created"
	EventTypeBoardDeleted   = "board_deleted"
	EventTypeListCreated    = "list_created"
	EventTypeListMoved      = "list_moved"
	EventTypeCommentCreated = "comment_created"
	EventTypeUserInvited    = "user_invited"
)

// Event types - Server → Client
const (
	EventTypeInitialState = "initial_state"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type        string          `json:"type"`
	WorkspaceID *uuid.UUID      `json:"workspace_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type WorkspacePayload struct {
	WorkspaceID uuid.UUID `json:"workspace_id"`
}

// --- Domain payloads ---

type CardCreatedPayload struct {
	domain.Card
}

type CardMovedPayload struct {
	CardID      uuid.UUID `json:"card_id"`
	NewBoardID  uuid.UUID `json:"new_board_id"`
	NewPosition int       `json:"new_position"`
}

type CardDeletedPayload struct {
	CardID  uuid.UUID `json:"card_id"`
	BoardID uuid.UUID `json:"board_id"`
}

type BoardCreatedPayload struct {
	domain.Board
}

type BoardDeletedPayload struct {
	BoardID uuid.UUID `json:"board_id"`
}

type ListCreatedPayload struct {
	domain.List
}

type ListMovedPayload struct {
	ListID      uuid.UUID `json:"list_id"`
	BoardID     uuid.UUID `json:"board_id"`
	NewPosition int       `json:"new_position"`
}

type CommentCreatedPayload struct {
	domain.Comment
}

type UserInvitedPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
}

// --- Server → Client payloads ---

type InitialStatePayload struct {
	Boards []domain.Board `json:"boards"`
	Cards  []domain.Card  `json:"cards"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType string, workspaceID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:        eventType,
		WorkspaceID: workspaceID,
		Payload:     data,
		Timestamp:   time.Now().Unix(),
	}, nil
}

var errUnknownEvent = errors.New("unknown event type")

// decodeDomainPayload validates an inbound domain event against the closed
// payload set. Loosely-shaped payloads stop here instead of reaching a room.
func decodeDomainPayload(event *Event) (any, error) {
	var target any
	switch event.Type {
	case EventTypeCardCreated:
		target = &CardCreatedPayload{}
	case EventTypeCardMoved:
		target = &CardMovedPayload{}
	case EventTypeCardDeleted:
		target = &CardDeletedPayload{}
	case EventTypeBoardCreated:
		target = &BoardCreatedPayload{}
	case EventTypeBoardDeleted:
		target = &BoardDeletedPayload{}
	case EventTypeListCreated:
		target = &ListCreatedPayload{}
	case EventTypeListMoved:
		target = &ListMovedPayload{}
	case EventTypeCommentCreated:
		target = &CommentCreatedPayload{}
	case EventTypeUserInvited:
		target = &UserInvitedPayload{}
	default:
		return nil, errUnknownEvent
	}
	if err := json.Unmarshal(event.Payload, target); err != nil {
		return nil, err
	}
	return target, nil
}
