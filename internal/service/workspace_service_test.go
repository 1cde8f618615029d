package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/service"
)

func TestInviteAddsMemberAndSyncsBoards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	invited := f.registerUser(t, "invited@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")

	err := f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "invited@example.com"})
	require.NoError(t, err)

	member, err := f.store.Workspaces().GetMember(ctx, wsID, invited)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, domain.RoleMember, member.Role)

	// Existing boards pick up the new member.
	ok, err := f.store.Boards().IsMember(ctx, board, invited)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, f.notifier.count("user_invited"))
}

func TestInviteRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	member := f.registerUser(t, "member@example.com")
	f.registerUser(t, "third@example.com")
	wsID := f.seedWorkspace(t, owner)

	require.NoError(t, f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "member@example.com"}))

	err := f.workspace.Invite(ctx, member, wsID, service.InviteInput{Email: "third@example.com"})
	assert.ErrorIs(t, err, service.ErrNotWorkspaceOwner)
}

func TestInviteRejectsExistingMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	f.registerUser(t, "invited@example.com")
	wsID := f.seedWorkspace(t, owner)

	require.NoError(t, f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "invited@example.com"}))
	err := f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "invited@example.com"})
	assert.ErrorIs(t, err, service.ErrAlreadyMember)
}

func TestInviteUnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	wsID := f.seedWorkspace(t, owner)

	err := f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestWorkspaceDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")
	card := f.seedCard(t, owner, board, "Card A")
	_, err := f.lists.Create(ctx, owner, service.CreateListInput{Title: "Todo", BoardID: board})
	require.NoError(t, err)

	require.NoError(t, f.workspace.Delete(ctx, owner, wsID))

	ws, err := f.store.Workspaces().GetByID(ctx, wsID)
	require.NoError(t, err)
	assert.Nil(t, ws)

	b, err := f.store.Boards().GetByID(ctx, board)
	require.NoError(t, err)
	assert.Nil(t, b)

	c, err := f.store.Cards().GetByID(ctx, card)
	require.NoError(t, err)
	assert.Nil(t, c)

	lists, err := f.store.Lists().ListByBoard(ctx, board)
	require.NoError(t, err)
	assert.Empty(t, lists)

	// The change log is purged as an explicit saga step, not left to
	// storage-level cascades.
	entries, err := f.store.ChangeLog().RecentByWorkspace(ctx, wsID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// A rerun finds nothing left and fails with not-found, not a partial
	// cascade error.
	err = f.workspace.Delete(ctx, owner, wsID)
	assert.ErrorIs(t, err, service.ErrWorkspaceNotFound)
}

func TestWorkspaceDeleteRequiresOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	member := f.registerUser(t, "member@example.com")
	wsID := f.seedWorkspace(t, owner)
	require.NoError(t, f.workspace.Invite(ctx, owner, wsID, service.InviteInput{Email: "member@example.com"}))

	err := f.workspace.Delete(ctx, member, wsID)
	assert.ErrorIs(t, err, service.ErrNotWorkspaceOwner)
}

func TestHistoryCappedAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	wsID := f.seedWorkspace(t, owner)
	board := f.seedBoard(t, owner, wsID, "Sprint 1")

	for i := 0; i < 12; i++ {
		f.seedCard(t, owner, board, fmt.Sprintf("card %d", i))
	}

	history, err := f.workspace.History(ctx, owner, wsID)
	require.NoError(t, err)
	assert.Len(t, history, 10)
	assert.Equal(t, "card 11", history[0].Title)
}

func TestHistoryRequiresMembership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.registerUser(t, "owner@example.com")
	outsider := f.registerUser(t, "outsider@example.com")
	wsID := f.seedWorkspace(t, owner)

	_, err := f.workspace.History(ctx, outsider, wsID)
	assert.ErrorIs(t, err, service.ErrNotMember)
}
