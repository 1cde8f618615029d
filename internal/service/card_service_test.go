package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
	"github.com/velebit-dev/boardsync/internal/repository/memory"
	"github.com/velebit-dev/boardsync/internal/service"
)

// recordingNotifier captures broadcast calls so tests can assert what would
// have gone out to the room.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, name)
}

func (n *recordingNotifier) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *recordingNotifier) CardCreated(uuid.UUID, *domain.Card)           { n.record("card_created") }
func (n *recordingNotifier) CardMoved(uuid.UUID, uuid.UUID, uuid.UUID, int) {
	n.record("card_moved")
}
func (n *recordingNotifier) CardDeleted(uuid.UUID, uuid.UUID, uuid.UUID) { n.record("card_deleted") }
func (n *recordingNotifier) BoardCreated(uuid.UUID, *domain.Board)       { n.record("board_created") }
func (n *recordingNotifier) BoardDeleted(uuid.UUID, uuid.UUID)           { n.record("board_deleted") }
func (n *recordingNotifier) ListCreated(uuid.UUID, *domain.List)         { n.record("list_created") }
func (n *recordingNotifier) ListMoved(uuid.UUID, uuid.UUID, uuid.UUID, int) {
	n.record("list_moved")
}
func (n *recordingNotifier) CommentCreated(uuid.UUID, *domain.Comment) { n.record("comment_created") }
func (n *recordingNotifier) UserInvited(uuid.UUID, uuid.UUID)          { n.record("user_invited") }

func (n *recordingNotifier) count(name string) int {
	c := 0
	for _, e := range n.recorded() {
		if e == name {
			c++
		}
	}
	return c
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	auth      *service.AuthService
	workspace *service.WorkspaceService
	boards    *service.BoardService
	lists     *service.ListService
	cards     *service.CardService
	comments  *service.CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}

	f := &fixture{store: store, notifier: notifier}
	f.auth = service.NewAuthService(store.Users(), "test-secret")
	f.workspace = service.NewWorkspaceService(store.Workspaces(), store.Boards(), store.Lists(), store.Cards(), store.Users(), store.ChangeLog())
	f.boards = service.NewBoardService(store.Boards(), store.Lists(), store.Cards(), store.Workspaces(), store.ChangeLog())
	f.lists = service.NewListService(store.Lists(), store.Boards(), store.Workspaces(), store.ChangeLog())
	f.cards = service.NewCardService(store.Cards(), store.Boards(), store.Workspaces(), store.ChangeLog())
	f.comments = service.NewCommentService(store.Comments(), store.Cards(), store.Boards(), store.Workspaces(), store.ChangeLog())

	f.workspace.SetNotifier(notifier)
	f.boards.SetNotifier(notifier)
	f.lists.SetNotifier(notifier)
	f.cards.SetNotifier(notifier)
	f.comments.SetNotifier(notifier)
	return f
}

func (f *fixture) registerUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:    email,
		Name:     "Test User",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	return resp.User.ID
}

func (f *fixture) seedWorkspace(t *testing.T, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	ws, err := f.workspace.Create(context.Background(), ownerID, service.CreateWorkspaceInput{Title: "Engineering"})
	require.NoError(t, err)
	return ws.ID
}

func (f *fixture) seedBoard(t *testing.T, userID, workspaceID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	b, err := f.boards.Create(context.Background(), userID, service.CreateBoardInput{
		Title:       title,
		WorkspaceID: workspaceID,
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) seedCard(t *testing.T, userID, boardID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	c, err := f.cards.Create(context.Background(), userID, service.CreateCardInput{
		Title:   title,
		BoardID: boardID,
	})
	require.NoError(t, err)
	return c.ID
}

func TestCardMoveAcrossBoards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	sprint1 := f.seedBoard(t, owner, wsID, "Sprint 1")
	sprint2 := f.seedBoard(t, owner, wsID, "Sprint 2")

	cardA := f.seedCard(t, owner, sprint1, "Card A")
	cardB := f.seedCard(t, owner, sprint1, "Card B")

	moved, err := f.cards.Move(ctx, owner, cardA, service.MoveCardInput{
		NewBoardID:  sprint2,
		NewPosition: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, sprint2, moved.BoardID)
	assert.Equal(t, 0, moved.Position)

	// Source board renumbered: the surviving card sits at position 0.
	remaining, err := f.cards.ListByBoard(ctx, owner, sprint1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, cardB, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Position)

	// Change log records source and destination.
	history, err := f.workspace.History(ctx, owner, wsID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	entry := history[0]
	assert.Equal(t, domain.ActionCardMoved, entry.Action)
	require.NotNil(t, entry.FromBoardID)
	require.NotNil(t, entry.ToBoardID)
	assert.Equal(t, sprint1, *entry.FromBoardID)
	assert.Equal(t, sprint2, *entry.ToBoardID)

	assert.Equal(t, 1, f.notifier.count("card_moved"))
}

func TestCardMoveWithinBoardReorders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")

	first := f.seedCard(t, owner, board, "first")
	second := f.seedCard(t, owner, board, "second")
	third := f.seedCard(t, owner, board, "third")

	// Move the last card to the front.
	moved, err := f.cards.Move(ctx, owner, third, service.MoveCardInput{
		NewBoardID:  board,
		NewPosition: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)

	cards, err := f.cards.ListByBoard(ctx, owner, board)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, []uuid.UUID{third, first, second}, []uuid.UUID{cards[0].ID, cards[1].ID, cards[2].ID})
	for i, c := range cards {
		assert.Equal(t, i, c.Position)
	}
}

func TestCardMoveDeniedForNonMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	outsider := f.registerUser(t, "c@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	card := f.seedCard(t, owner, board, "Card A")

	before := f.notifier.count("card_moved")

	_, err := f.cards.Move(ctx, outsider, card, service.MoveCardInput{
		NewBoardID:  board,
		NewPosition: 0,
	})
	assert.ErrorIs(t, err, service.ErrNotMember)

	// No broadcast and no history entry for the rejected move.
	assert.Equal(t, before, f.notifier.count("card_moved"))
	history, err := f.workspace.History(ctx, owner, wsID)
	require.NoError(t, err)
	for _, e := range history {
		assert.NotEqual(t, domain.ActionCardMoved, e.Action)
	}
}

func TestCardMovePositionClamped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	cardA := f.seedCard(t, owner, board, "Card A")
	f.seedCard(t, owner, board, "Card B")

	moved, err := f.cards.Move(ctx, owner, cardA, service.MoveCardInput{
		NewBoardID:  board,
		NewPosition: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)
}

func TestCardCreateAtPositionShiftsSiblings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	existing := f.seedCard(t, owner, board, "existing")

	front := 0
	inserted, err := f.cards.Create(ctx, owner, service.CreateCardInput{
		Title:    "inserted",
		BoardID:  board,
		Position: &front,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted.Position)

	cards, err := f.cards.ListByBoard(ctx, owner, board)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, inserted.ID, cards[0].ID)
	assert.Equal(t, existing, cards[1].ID)
	assert.Equal(t, 1, cards[1].Position)
}

func TestCardDeleteRenumbersSurvivors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	first := f.seedCard(t, owner, board, "first")
	second := f.seedCard(t, owner, board, "second")
	third := f.seedCard(t, owner, board, "third")

	require.NoError(t, f.cards.Delete(ctx, owner, second))

	cards, err := f.cards.ListByBoard(ctx, owner, board)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, first, cards[0].ID)
	assert.Equal(t, 0, cards[0].Position)
	assert.Equal(t, third, cards[1].ID)
	assert.Equal(t, 1, cards[1].Position)
	assert.Equal(t, 1, f.notifier.count("card_deleted"))
}

// conflictingCardRepo forces revision conflicts on the first N ApplyMove
// calls, then delegates.
type conflictingCardRepo struct {
	repository.CardRepository
	mu        sync.Mutex
	conflicts int
}

func (r *conflictingCardRepo) ApplyMove(ctx context.Context, revisions []repository.BoardRevision, placements []repository.CardPlacement) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return repository.ErrRevisionConflict
	}
	r.mu.Unlock()
	return r.CardRepository.ApplyMove(ctx, revisions, placements)
}

func TestCardMoveRetriesOnRevisionConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	card := f.seedCard(t, owner, board, "Card A")

	conflicting := &conflictingCardRepo{CardRepository: f.store.Cards(), conflicts: 2}
	cards := service.NewCardService(conflicting, f.store.Boards(), f.store.Workspaces(), f.store.ChangeLog())

	moved, err := cards.Move(ctx, owner, card, service.MoveCardInput{
		NewBoardID:  board,
		NewPosition: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
}

// interleavingCardRepo runs a hook once, right after the first sibling read
// of the watched board, modeling a concurrent mover committing between
// another mover's snapshot and its write.
type interleavingCardRepo struct {
	repository.CardRepository
	watchBoard uuid.UUID
	once       sync.Once
	hook       func()
}

func (r *interleavingCardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]domain.Card, error) {
	cards, err := r.CardRepository.ListByBoard(ctx, boardID)
	if boardID == r.watchBoard {
		r.once.Do(r.hook)
	}
	return cards, err
}

// A mover whose source-board snapshot went stale must not drag back a card
// that another mover has already committed to a different board.
func TestConcurrentCrossBoardMovesDoNotUnmoveCards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	b1 := f.seedBoard(t, owner, wsID, "Backlog")
	b2 := f.seedBoard(t, owner, wsID, "Sprint 1")
	b3 := f.seedBoard(t, owner, wsID, "Sprint 2")
	cardX := f.seedCard(t, owner, b1, "Card X")
	cardY := f.seedCard(t, owner, b1, "Card Y")

	// Right after the slow mover reads its source-board siblings (still
	// containing X), a faster mover commits X from b1 to b2.
	interleaving := &interleavingCardRepo{
		CardRepository: f.store.Cards(),
		watchBoard:     b1,
		hook: func() {
			moved, err := f.cards.Move(ctx, owner, cardX, service.MoveCardInput{
				NewBoardID:  b2,
				NewPosition: 0,
			})
			require.NoError(t, err)
			require.Equal(t, b2, moved.BoardID)
		},
	}
	slowCards := service.NewCardService(interleaving, f.store.Boards(), f.store.Workspaces(), f.store.ChangeLog())

	movedY, err := slowCards.Move(ctx, owner, cardY, service.MoveCardInput{
		NewBoardID:  b3,
		NewPosition: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, b3, movedY.BoardID)

	// The fast mover's commit survives: X stays on b2.
	x, err := f.store.Cards().GetByID(ctx, cardX)
	require.NoError(t, err)
	require.NotNil(t, x)
	assert.Equal(t, b2, x.BoardID)

	remaining, err := f.cards.ListByBoard(ctx, owner, b1)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCardSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	outsider := f.registerUser(t, "c@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")

	login := f.seedCard(t, owner, board, "Fix login bug")
	f.seedCard(t, owner, board, "Write docs")
	described, err := f.cards.Create(ctx, owner, service.CreateCardInput{
		Title:       "Cleanup",
		Description: "remove the old login flow",
		BoardID:     board,
	})
	require.NoError(t, err)

	results, err := f.cards.Search(ctx, owner, board, "LOGIN")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, login, results[0].ID)
	assert.Equal(t, described.ID, results[1].ID)

	_, err = f.cards.Search(ctx, outsider, board, "login")
	assert.ErrorIs(t, err, service.ErrNotMember)
}

func TestCardMoveGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "a@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	card := f.seedCard(t, owner, board, "Card A")

	conflicting := &conflictingCardRepo{CardRepository: f.store.Cards(), conflicts: 100}
	cards := service.NewCardService(conflicting, f.store.Boards(), f.store.Workspaces(), f.store.ChangeLog())

	_, err := cards.Move(ctx, owner, card, service.MoveCardInput{
		NewBoardID:  board,
		NewPosition: 0,
	})
	assert.ErrorIs(t, err, service.ErrMoveConflict)
}
