package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket session. It starts unauthenticated;
// a valid authenticate event binds it to a user and auto-joins the rooms of
// every workspace that user belongs to.
type Client struct {
	hub     *Hub
	backend Backend
	conn    *websocket.Conn
	secret  string

	mu     sync.RWMutex
	userID uuid.UUID
	rooms  map[uuid.UUID]struct{}

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, backend Backend, conn *websocket.Conn, jwtSecret string) *Client {
	return &Client{
		hub:     hub,
		backend: backend,
		conn:    conn,
		secret:  jwtSecret,
		rooms:   make(map[uuid.UUID]struct{}),
		send:    make(chan []byte, sendBufSize),
		done:    make(chan struct{}),
	}
}

// InRoom checks if this session has joined a workspace room.
func (c *Client) InRoom(workspaceID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.rooms[workspaceID]
	return ok
}

// JoinRoom adds a workspace room membership.
func (c *Client) JoinRoom(workspaceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[workspaceID] = struct{}{}
}

// LeaveRoom removes a workspace room membership.
func (c *Client) LeaveRoom(workspaceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, workspaceID)
}

func (c *Client) authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID != uuid.Nil
}

func (c *Client) user() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// ReadPump reads events from the WebSocket and handles them.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("ws: session disconnected")
			} else {
				log.Printf("ws: read error: %v", err)
			}
			return
		}

		if !c.handleEvent(&event) {
			return
		}
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error: %v", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error: %v", err)
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming event. It reports whether the session may
// continue; a failed authentication terminates the connection.
func (c *Client) handleEvent(event *Event) bool {
	ctx := context.Background()

	switch event.Type {
	case EventTypeAuthenticate:
		return c.handleAuthenticate(ctx, event)

	case EventTypeJoinWorkspace:
		c.handleJoin(ctx, event)

	case EventTypeLeaveWorkspace:
		var p WorkspacePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError(http.StatusBadRequest, "invalid leave_workspace payload")
			return true
		}
		c.LeaveRoom(p.WorkspaceID)

	case EventTypePing:
		c.sendPong()

	case EventTypeCardCreated, EventTypeCardMoved, EventTypeCardDeleted,
		EventTypeBoardCreated, EventTypeBoardDeleted,
		EventTypeListCreated, EventTypeListMoved,
		EventTypeCommentCreated, EventTypeUserInvited:
		c.handleRelay(event)

	default:
		c.sendError(http.StatusBadRequest, "unknown event type: "+event.Type)
	}
	return true
}

// handleAuthenticate binds the session to a user and auto-joins every room
// of the workspaces the user already belongs to. On failure the connection
// is closed after an error event.
func (c *Client) handleAuthenticate(ctx context.Context, event *Event) bool {
	var p AuthenticatePayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError(http.StatusUnauthorized, "authentication failed")
		return false
	}

	userID, err := validateToken(p.Token, c.secret)
	if err != nil || userID == uuid.Nil {
		c.sendError(http.StatusUnauthorized, "authentication failed")
		return false
	}

	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()

	workspaceIDs, err := c.backend.MemberWorkspaceIDs(ctx, userID)
	if err != nil {
		log.Printf("ws: listing workspaces for %s: %v", userID, err)
		return true
	}
	for _, id := range workspaceIDs {
		c.JoinRoom(id)
	}
	log.Printf("ws: user %s authenticated, joined %d rooms", userID, len(workspaceIDs))
	return true
}

// handleJoin checks membership, joins the room, and replies with the
// workspace's current boards and cards. A rejected join leaves the session's
// room set untouched.
func (c *Client) handleJoin(ctx context.Context, event *Event) {
	if !c.authenticated() {
		c.sendError(http.StatusUnauthorized, "authenticate first")
		return
	}

	var p WorkspacePayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		c.sendError(http.StatusBadRequest, "invalid join_workspace payload")
		return
	}

	userID := c.user()
	ok, err := c.backend.IsMember(ctx, p.WorkspaceID, userID)
	if err != nil {
		log.Printf("ws: membership check: %v", err)
		c.sendError(http.StatusInternalServerError, "something went wrong")
		return
	}
	if !ok {
		c.sendError(http.StatusForbidden, "access denied to workspace")
		return
	}

	c.JoinRoom(p.WorkspaceID)

	boards, cards, err := c.backend.State(ctx, userID, p.WorkspaceID)
	if err != nil {
		log.Printf("ws: loading state: %v", err)
		c.sendError(http.StatusInternalServerError, "something went wrong")
		return
	}
	evt, err := NewEvent(EventTypeInitialState, &p.WorkspaceID, InitialStatePayload{Boards: boards, Cards: cards})
	if err != nil {
		return
	}
	c.sendEvent(evt)
}

// handleRelay rebroadcasts a client-confirmed mutation to its room. The
// payload must decode against the closed event set and the session must have
// joined the room; anything else is dropped with an error event.
func (c *Client) handleRelay(event *Event) {
	if !c.authenticated() {
		c.sendError(http.StatusUnauthorized, "authenticate first")
		return
	}
	if event.WorkspaceID == nil {
		c.sendError(http.StatusBadRequest, "workspace_id required")
		return
	}
	if !c.InRoom(*event.WorkspaceID) {
		c.sendError(http.StatusForbidden, "access denied to workspace")
		return
	}

	payload, err := decodeDomainPayload(event)
	if err != nil {
		c.sendError(http.StatusBadRequest, "invalid "+event.Type+" payload")
		return
	}

	evt, err := NewEvent(event.Type, event.WorkspaceID, payload)
	if err != nil {
		return
	}
	c.hub.BroadcastToWorkspace(*event.WorkspaceID, evt)
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	c.trySend(data)
}

func (c *Client) sendError(code int, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Message: message, Code: code})
	if err != nil {
		return
	}
	c.sendEvent(evt)
}

func (c *Client) sendEvent(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data for the write pump unless the session is already shut
// down or its buffer is full.
func (c *Client) trySend(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}
