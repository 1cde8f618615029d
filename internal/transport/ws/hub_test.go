package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsID := uuid.New()
	inRoom := NewClient(hub, nil, nil, "secret")
	inRoom.JoinRoom(wsID)
	outside := NewClient(hub, nil, nil, "secret")

	hub.register <- inRoom
	hub.register <- outside

	evt, err := NewEvent(EventTypeCardMoved, &wsID, CardMovedPayload{
		CardID:      uuid.New(),
		NewBoardID:  uuid.New(),
		NewPosition: 0,
	})
	require.NoError(t, err)
	hub.BroadcastToWorkspace(wsID, evt)

	select {
	case data := <-inRoom.send:
		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, EventTypeCardMoved, got.Type)
	case <-time.After(time.Second):
		t.Fatal("room member did not receive broadcast")
	}

	select {
	case <-outside.send:
		t.Fatal("session outside the room received broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOriginatorReceivesOwnBroadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsID := uuid.New()
	originator := NewClient(hub, nil, nil, "secret")
	originator.JoinRoom(wsID)
	hub.register <- originator

	evt, err := NewEvent(EventTypeCardCreated, &wsID, CardCreatedPayload{})
	require.NoError(t, err)
	hub.BroadcastToWorkspace(wsID, evt)

	select {
	case <-originator.send:
	case <-time.After(time.Second):
		t.Fatal("originating session was excluded from its own broadcast")
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsID := uuid.New()
	slow := NewClient(hub, nil, nil, "secret")
	slow.JoinRoom(wsID)
	hub.register <- slow

	// Fill the send buffer without draining it, then push one more.
	evt, err := NewEvent(EventTypeCardDeleted, &wsID, CardDeletedPayload{CardID: uuid.New(), BoardID: uuid.New()})
	require.NoError(t, err)
	for i := 0; i <= sendBufSize; i++ {
		hub.BroadcastToWorkspace(wsID, evt)
	}

	select {
	case <-slow.done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow session was not dropped")
	}

	// The session's own goroutines may still try to reply after the drop;
	// queueing must degrade to a no-op rather than panic.
	slow.sendPong()
	slow.sendError(500, "too slow")
}
