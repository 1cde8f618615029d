package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the change log. The log is observational only; it is
// never read back to rebuild state.
const (
	ActionCardCreated    = "card_created"
	ActionCardMoved      = "card_moved"
	ActionCardDeleted    = "card_deleted"
	ActionBoardCreated   = "board_created"
	ActionBoardDeleted   = "board_deleted"
	ActionListCreated    = "list_created"
	ActionListMoved      = "list_moved"
	ActionCommentCreated = "comment_created"
	ActionUserInvited    = "user_invited"
)

type ChangeLogEntry struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	BoardID     *uuid.UUID `json:"board_id,omitempty"`
	Action      string     `json:"action"`
	Title       string     `json:"title,omitempty"`
	FromBoardID *uuid.UUID `json:"from_board_id,omitempty"`
	ToBoardID   *uuid.UUID `json:"to_board_id,omitempty"`
	ActorID     uuid.UUID  `json:"actor_id"`
	Timestamp   time.Time  `json:"timestamp"`
	// Joined field
	ActorName string `json:"actor_name,omitempty"`
}
