// Package client implements the board state a connected client renders and
// the optimistic reconciliation of drag-and-drop moves: apply the reorder
// locally on drag-end, send the move request, then either confirm on success
// or restore the pre-drag snapshot on failure. Broadcast events merge in
// idempotently either way.
package client

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/ranking"
	"github.com/velebit-dev/boardsync/internal/transport/ws"
)

var (
	ErrUnknownCard  = errors.New("card not in local state")
	ErrUnknownBoard = errors.New("board not in local state")
	// ErrMoveInFlight rejects a second drag while one move awaits its
	// response; the UI disables dragging until then.
	ErrMoveInFlight = errors.New("a move is already in flight")
	ErrNoPendingMove = errors.New("no pending move")
)

// MoveRequest is what the caller sends to PUT /cards/{id}/move after a drop.
type MoveRequest struct {
	CardID      uuid.UUID `json:"-"`
	NewBoardID  uuid.UUID `json:"new_board_id"`
	NewPosition int       `json:"new_position"`
}

type pendingMove struct {
	req      MoveRequest
	snapshot map[uuid.UUID]domain.Card
}

// Reconciler holds the local view of one workspace's boards and cards.
type Reconciler struct {
	mu      sync.Mutex
	boards  map[uuid.UUID]domain.Board
	cards   map[uuid.UUID]domain.Card
	pending *pendingMove
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		boards: make(map[uuid.UUID]domain.Board),
		cards:  make(map[uuid.UUID]domain.Card),
	}
}

// Load replaces local state with an authoritative snapshot, as delivered by
// the initial_state event on joining a workspace room.
func (r *Reconciler) Load(boards []domain.Board, cards []domain.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(boards, cards)
}

func (r *Reconciler) loadLocked(boards []domain.Board, cards []domain.Card) {
	r.boards = make(map[uuid.UUID]domain.Board, len(boards))
	for _, b := range boards {
		r.boards[b.ID] = b
	}
	r.cards = make(map[uuid.UUID]domain.Card, len(cards))
	for _, c := range cards {
		r.cards[c.ID] = c
	}
	r.pending = nil
}

// Boards returns the known boards.
func (r *Reconciler) Boards() []domain.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Board, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b)
	}
	return out
}

// Cards returns the board's cards in display order.
func (r *Reconciler) Cards(boardID uuid.UUID) []domain.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cardsLocked(boardID)
}

// DropOnCard ends a drag on top of a sibling card: the dragged card takes
// the sibling's index. The reorder is applied speculatively and the request
// to send is returned.
func (r *Reconciler) DropOnCard(cardID, targetCardID uuid.UUID) (MoveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.cards[targetCardID]
	if !ok {
		return MoveRequest{}, ErrUnknownCard
	}
	siblings := r.cardsLocked(target.BoardID)
	index := 0
	for i, c := range siblings {
		if c.ID == targetCardID {
			index = i
			break
		}
	}
	return r.beginMove(cardID, target.BoardID, index)
}

// DropOnBoard ends a drag on a board's empty area: the card is appended.
func (r *Reconciler) DropOnBoard(cardID, boardID uuid.UUID) (MoveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[boardID]; !ok {
		return MoveRequest{}, ErrUnknownBoard
	}
	n := 0
	for _, c := range r.cards {
		if c.BoardID == boardID && c.ID != cardID {
			n++
		}
	}
	return r.beginMove(cardID, boardID, ranking.PositionForAppend(n))
}

// Confirm resolves the pending move after a success response. Local state is
// already correct; the caller should mirror the event to the room.
func (r *Reconciler) Confirm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return ErrNoPendingMove
	}
	r.pending = nil
	return nil
}

// Rollback restores the pre-drag snapshot unconditionally. Called on any
// failure response so speculative state never outlives a rejected move.
func (r *Reconciler) Rollback() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return ErrNoPendingMove
	}
	r.cards = r.pending.snapshot
	r.pending = nil
	return nil
}

// Pending reports whether a move awaits its response.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// ApplyEvent merges a broadcast event into local state. Events may arrive
// before or after the originating request's response; applying one twice
// leaves the same state as applying it once.
func (r *Reconciler) ApplyEvent(event *ws.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case ws.EventTypeInitialState:
		var p ws.InitialStatePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		r.loadLocked(p.Boards, p.Cards)

	case ws.EventTypeCardCreated:
		var p ws.CardCreatedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		r.cards[p.Card.ID] = p.Card

	case ws.EventTypeCardMoved:
		var p ws.CardMovedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		if _, ok := r.cards[p.CardID]; !ok {
			return nil
		}
		r.applyMoveLocked(p.CardID, p.NewBoardID, p.NewPosition)

	case ws.EventTypeCardDeleted:
		var p ws.CardDeletedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		delete(r.cards, p.CardID)
		r.renumberLocked(p.BoardID)

	case ws.EventTypeBoardCreated:
		var p ws.BoardCreatedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		r.boards[p.Board.ID] = p.Board

	case ws.EventTypeBoardDeleted:
		var p ws.BoardDeletedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		delete(r.boards, p.BoardID)
		for id, c := range r.cards {
			if c.BoardID == p.BoardID {
				delete(r.cards, id)
			}
		}
	}
	return nil
}

// beginMove snapshots, applies the speculative reorder, and records the
// pending move. Caller holds the lock.
func (r *Reconciler) beginMove(cardID, toBoardID uuid.UUID, index int) (MoveRequest, error) {
	if r.pending != nil {
		return MoveRequest{}, ErrMoveInFlight
	}
	if _, ok := r.cards[cardID]; !ok {
		return MoveRequest{}, ErrUnknownCard
	}

	snapshot := make(map[uuid.UUID]domain.Card, len(r.cards))
	for id, c := range r.cards {
		snapshot[id] = c
	}

	r.applyMoveLocked(cardID, toBoardID, index)

	req := MoveRequest{CardID: cardID, NewBoardID: toBoardID, NewPosition: index}
	r.pending = &pendingMove{req: req, snapshot: snapshot}
	return req, nil
}

// applyMoveLocked moves the card locally: insert into the destination order
// at the given index, renumber both containers. Caller holds the lock.
func (r *Reconciler) applyMoveLocked(cardID, toBoardID uuid.UUID, index int) {
	card := r.cards[cardID]
	fromBoardID := card.BoardID

	items := r.itemsLocked(toBoardID, cardID)
	items = ranking.InsertAt(items, ranking.Item{ID: cardID}, index)
	card.BoardID = toBoardID
	r.cards[cardID] = card
	r.writePositionsLocked(items, toBoardID)

	if fromBoardID != toBoardID {
		r.renumberLocked(fromBoardID)
	}
}

func (r *Reconciler) renumberLocked(boardID uuid.UUID) {
	items := r.itemsLocked(boardID, uuid.Nil)
	ranking.Renumber(items)
	r.writePositionsLocked(items, boardID)
}

func (r *Reconciler) itemsLocked(boardID, exclude uuid.UUID) []ranking.Item {
	var items []ranking.Item
	for _, c := range r.cards {
		if c.BoardID == boardID && c.ID != exclude {
			items = append(items, ranking.Item{ID: c.ID, Position: c.Position})
		}
	}
	return items
}

func (r *Reconciler) writePositionsLocked(items []ranking.Item, boardID uuid.UUID) {
	for _, it := range items {
		c := r.cards[it.ID]
		c.BoardID = boardID
		c.Position = it.Position
		r.cards[it.ID] = c
	}
}

func (r *Reconciler) cardsLocked(boardID uuid.UUID) []domain.Card {
	items := r.itemsLocked(boardID, uuid.Nil)
	ranking.Sort(items)
	out := make([]domain.Card, len(items))
	for i, it := range items {
		out[i] = r.cards[it.ID]
	}
	return out
}
