package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventCarriesPayloadAndTimestamp(t *testing.T) {
	wsID := uuid.New()
	evt, err := NewEvent(EventTypeCardMoved, &wsID, CardMovedPayload{
		CardID:      uuid.New(),
		NewBoardID:  uuid.New(),
		NewPosition: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, EventTypeCardMoved, evt.Type)
	require.NotNil(t, evt.WorkspaceID)
	assert.Equal(t, wsID, *evt.WorkspaceID)
	assert.NotZero(t, evt.Timestamp)

	var p CardMovedPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, 2, p.NewPosition)
}

func TestDecodeDomainPayloadClosedSet(t *testing.T) {
	wsID := uuid.New()

	evt, err := NewEvent(EventTypeCardMoved, &wsID, CardMovedPayload{
		CardID:      uuid.New(),
		NewBoardID:  uuid.New(),
		NewPosition: 1,
	})
	require.NoError(t, err)

	decoded, err := decodeDomainPayload(evt)
	require.NoError(t, err)
	p, ok := decoded.(*CardMovedPayload)
	require.True(t, ok)
	assert.Equal(t, 1, p.NewPosition)
}

func TestDecodeDomainPayloadRejectsUnknownType(t *testing.T) {
	evt := &Event{Type: "evil_event", Payload: json.RawMessage(`{}`)}
	_, err := decodeDomainPayload(evt)
	assert.Error(t, err)
}

func TestDecodeDomainPayloadRejectsMalformedPayload(t *testing.T) {
	evt := &Event{Type: EventTypeCardMoved, Payload: json.RawMessage(`{"card_id": 42}`)}
	_, err := decodeDomainPayload(evt)
	assert.Error(t, err)
}

func TestDecodeDomainPayloadSessionEventsExcluded(t *testing.T) {
	for _, typ := range []string{EventTypeAuthenticate, EventTypeJoinWorkspace, EventTypePing, EventTypeInitialState, EventTypeError} {
		evt := &Event{Type: typ, Payload: json.RawMessage(`{}`)}
		_, err := decodeDomainPayload(evt)
		assert.Error(t, err, typ)
	}
}
