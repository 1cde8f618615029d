package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/transport/ws"
)

func seedReconciler(t *testing.T) (*Reconciler, domain.Board, domain.Board, []domain.Card) {
	t.Helper()
	r := NewReconciler()
	b1 := domain.Board{ID: uuid.New(), Title: "Sprint 1"}
	b2 := domain.Board{ID: uuid.New(), Title: "Sprint 2"}
	cards := []domain.Card{
		{ID: uuid.New(), BoardID: b1.ID, Title: "A", Position: 0},
		{ID: uuid.New(), BoardID: b1.ID, Title: "B", Position: 1},
		{ID: uuid.New(), BoardID: b1.ID, Title: "C", Position: 2},
		{ID: uuid.New(), BoardID: b2.ID, Title: "D", Position: 0},
	}
	r.Load([]domain.Board{b1, b2}, cards)
	return r, b1, b2, cards
}

func ids(cards []domain.Card) []uuid.UUID {
	out := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestDropOnCardAppliesOptimistically(t *testing.T) {
	r, b1, _, cards := seedReconciler(t)

	// Drag C onto A: C takes A's index at the front.
	req, err := r.DropOnCard(cards[2].ID, cards[0].ID)
	require.NoError(t, err)
	assert.Equal(t, cards[2].ID, req.CardID)
	assert.Equal(t, b1.ID, req.NewBoardID)
	assert.Equal(t, 0, req.NewPosition)

	got := r.Cards(b1.ID)
	assert.Equal(t, []uuid.UUID{cards[2].ID, cards[0].ID, cards[1].ID}, ids(got))
	for i, c := range got {
		assert.Equal(t, i, c.Position)
	}
	assert.True(t, r.Pending())
}

func TestDropOnBoardAppends(t *testing.T) {
	r, b1, b2, cards := seedReconciler(t)

	req, err := r.DropOnBoard(cards[0].ID, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, b2.ID, req.NewBoardID)
	assert.Equal(t, 1, req.NewPosition)

	dest := r.Cards(b2.ID)
	assert.Equal(t, []uuid.UUID{cards[3].ID, cards[0].ID}, ids(dest))

	// Source renumbered after the card left.
	src := r.Cards(b1.ID)
	assert.Equal(t, []uuid.UUID{cards[1].ID, cards[2].ID}, ids(src))
	assert.Equal(t, 0, src[0].Position)
	assert.Equal(t, 1, src[1].Position)
}

func TestConfirmClearsPending(t *testing.T) {
	r, _, b2, cards := seedReconciler(t)

	_, err := r.DropOnBoard(cards[0].ID, b2.ID)
	require.NoError(t, err)
	require.NoError(t, r.Confirm())
	assert.False(t, r.Pending())

	// Confirmed state keeps the optimistic placement.
	dest := r.Cards(b2.ID)
	assert.Len(t, dest, 2)

	assert.ErrorIs(t, r.Confirm(), ErrNoPendingMove)
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	r, b1, b2, cards := seedReconciler(t)

	before := ids(r.Cards(b1.ID))
	_, err := r.DropOnBoard(cards[0].ID, b2.ID)
	require.NoError(t, err)
	require.NoError(t, r.Rollback())

	assert.False(t, r.Pending())
	assert.Equal(t, before, ids(r.Cards(b1.ID)))
	assert.Equal(t, []uuid.UUID{cards[3].ID}, ids(r.Cards(b2.ID)))
}

func TestSecondDragRejectedWhileInFlight(t *testing.T) {
	r, _, b2, cards := seedReconciler(t)

	_, err := r.DropOnBoard(cards[0].ID, b2.ID)
	require.NoError(t, err)

	_, err = r.DropOnBoard(cards[1].ID, b2.ID)
	assert.ErrorIs(t, err, ErrMoveInFlight)
}

func TestApplyCardMovedIdempotent(t *testing.T) {
	r, b1, b2, cards := seedReconciler(t)
	wsID := uuid.New()

	evt, err := ws.NewEvent(ws.EventTypeCardMoved, &wsID, ws.CardMovedPayload{
		CardID:      cards[0].ID,
		NewBoardID:  b2.ID,
		NewPosition: 0,
	})
	require.NoError(t, err)

	require.NoError(t, r.ApplyEvent(evt))
	after := ids(r.Cards(b2.ID))
	require.NoError(t, r.ApplyEvent(evt))
	assert.Equal(t, after, ids(r.Cards(b2.ID)))

	assert.Equal(t, []uuid.UUID{cards[0].ID, cards[3].ID}, after)
	src := r.Cards(b1.ID)
	assert.Equal(t, []uuid.UUID{cards[1].ID, cards[2].ID}, ids(src))
}

func TestApplyCardMovedUnknownCardIgnored(t *testing.T) {
	r, b1, _, _ := seedReconciler(t)
	wsID := uuid.New()

	evt, err := ws.NewEvent(ws.EventTypeCardMoved, &wsID, ws.CardMovedPayload{
		CardID:      uuid.New(),
		NewBoardID:  b1.ID,
		NewPosition: 0,
	})
	require.NoError(t, err)

	before := ids(r.Cards(b1.ID))
	require.NoError(t, r.ApplyEvent(evt))
	assert.Equal(t, before, ids(r.Cards(b1.ID)))
}

func TestApplyCardDeletedRenumbers(t *testing.T) {
	r, b1, _, cards := seedReconciler(t)
	wsID := uuid.New()

	evt, err := ws.NewEvent(ws.EventTypeCardDeleted, &wsID, ws.CardDeletedPayload{
		CardID:  cards[1].ID,
		BoardID: b1.ID,
	})
	require.NoError(t, err)
	require.NoError(t, r.ApplyEvent(evt))

	got := r.Cards(b1.ID)
	assert.Equal(t, []uuid.UUID{cards[0].ID, cards[2].ID}, ids(got))
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, 1, got[1].Position)
}

func TestApplyBoardDeletedDropsItsCards(t *testing.T) {
	r, b1, b2, cards := seedReconciler(t)
	wsID := uuid.New()

	evt, err := ws.NewEvent(ws.EventTypeBoardDeleted, &wsID, ws.BoardDeletedPayload{BoardID: b1.ID})
	require.NoError(t, err)
	require.NoError(t, r.ApplyEvent(evt))

	assert.Len(t, r.Boards(), 1)
	assert.Empty(t, r.Cards(b1.ID))
	assert.Equal(t, []uuid.UUID{cards[3].ID}, ids(r.Cards(b2.ID)))
}

func TestApplyInitialStateReplacesLocalState(t *testing.T) {
	r, _, b2, cards := seedReconciler(t)
	wsID := uuid.New()

	// A pending move is discarded when an authoritative snapshot lands.
	_, err := r.DropOnBoard(cards[0].ID, b2.ID)
	require.NoError(t, err)

	fresh := domain.Board{ID: uuid.New(), Title: "Fresh"}
	card := domain.Card{ID: uuid.New(), BoardID: fresh.ID, Position: 0}
	evt, err := ws.NewEvent(ws.EventTypeInitialState, &wsID, ws.InitialStatePayload{
		Boards: []domain.Board{fresh},
		Cards:  []domain.Card{card},
	})
	require.NoError(t, err)
	require.NoError(t, r.ApplyEvent(evt))

	assert.False(t, r.Pending())
	assert.Len(t, r.Boards(), 1)
	assert.Equal(t, []uuid.UUID{card.ID}, ids(r.Cards(fresh.ID)))
}

func TestDropOnUnknownTargets(t *testing.T) {
	r, _, _, cards := seedReconciler(t)

	_, err := r.DropOnCard(cards[0].ID, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = r.DropOnBoard(cards[0].ID, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownBoard)

	_, err = r.DropOnBoard(uuid.New(), cards[0].BoardID)
	assert.ErrorIs(t, err, ErrUnknownCard)
}
