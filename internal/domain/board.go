package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	VisibilityPrivate   = "private"
	VisibilityWorkspace = "workspace"
)

type Board struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Title       string    `json:"title"`
	Visibility  string    `json:"visibility"`
	// Revision increments on every committed reorder of the board's
	// siblings. Moves compare-and-swap against it.
	Revision  int64     `json:"revision"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type BoardMember struct {
	BoardID uuid.UUID `json:"board_id"`
	UserID  uuid.UUID `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
}
