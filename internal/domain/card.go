package domain

import (
	"time"

	"github.com/google/uuid"
)

type Card struct {
	ID          uuid.UUID   `json:"id"`
	BoardID     uuid.UUID   `json:"board_id"`
	ListID      *uuid.UUID  `json:"list_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Labels      []string    `json:"labels"`
	Assignees   []uuid.UUID `json:"assignees"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Position    int         `json:"position"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
