package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Hub manages all active WebSocket sessions and routes room broadcasts.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
}

type broadcastMsg struct {
	workspaceID uuid.UUID
	data        []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMsg, 256),
	}
}

// Run starts the Hub's main event loop. It returns when the context is
// cancelled. Call this in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Printf("ws hub: session connected (%d total)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Only done is closed; send stays open so the
				// session's own goroutines can never hit a send
				// on a closed channel.
				close(client.done)
				log.Printf("ws hub: session disconnected (%d total)", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				// Every session joined to the room receives the
				// event, including the one that caused it.
				if !client.InRoom(msg.workspaceID) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					delete(h.clients, client)
					close(client.done)
				}
			}
		}
	}
}

// BroadcastToWorkspace sends an event to every session joined to the
// workspace's room.
func (h *Hub) BroadcastToWorkspace(workspaceID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.broadcast <- &broadcastMsg{
		workspaceID: workspaceID,
		data:        data,
	}
}
