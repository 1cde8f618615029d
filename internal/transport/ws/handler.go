package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
	"github.com/velebit-dev/boardsync/internal/service"
)

// Backend answers the membership and state questions a session asks.
type Backend interface {
	MemberWorkspaceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	State(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Board, []domain.Card, error)
}

// ServiceBackend implements Backend over the workspace repository and the
// board service.
type ServiceBackend struct {
	workspaces repository.WorkspaceRepository
	boards     *service.BoardService
}

func NewServiceBackend(workspaces repository.WorkspaceRepository, boards *service.BoardService) *ServiceBackend {
	return &ServiceBackend{workspaces: workspaces, boards: boards}
}

func (b *ServiceBackend) MemberWorkspaceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return b.workspaces.ListIDsByUser(ctx, userID)
}

func (b *ServiceBackend) IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	member, err := b.workspaces.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

func (b *ServiceBackend) State(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.Board, []domain.Card, error) {
	return b.boards.State(ctx, userID, workspaceID)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket. The session
// starts unauthenticated; the client's first event should be authenticate.
func ServeWS(hub *Hub, backend Backend, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, backend, conn, jwtSecret)
		hub.register <- client

		// Start read/write pumps in goroutines
		go client.WritePump()
		go client.ReadPump()
	}
}

func validateToken(tokenStr, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(sub)
}
