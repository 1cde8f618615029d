package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNotWorkspaceOwner = errors.New("only the workspace owner can perform this action")
	ErrNotMember         = errors.New("user is not a member of this workspace")
	ErrAlreadyMember     = errors.New("user is already a member")
	ErrUserNotFound      = errors.New("user not found")
)

const historyLimit = 10

type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	boardRepo     repository.BoardRepository
	listRepo      repository.ListRepository
	cardRepo      repository.CardRepository
	userRepo      repository.UserRepository
	changeLog     repository.ChangeLogRepository
	notifier      Notifier
}

func NewWorkspaceService(
	workspaceRepo repository.WorkspaceRepository,
	boardRepo repository.BoardRepository,
	listRepo repository.ListRepository,
	cardRepo repository.CardRepository,
	userRepo repository.UserRepository,
	changeLog repository.ChangeLogRepository,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		boardRepo:     boardRepo,
		listRepo:      listRepo,
		cardRepo:      cardRepo,
		userRepo:      userRepo,
		changeLog:     changeLog,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *WorkspaceService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateWorkspaceInput struct {
	Title string `json:"title"`
}

type InviteInput struct {
	Email string `json:"email"`
}

// Create makes the caller the workspace's sole member with the owner role.
func (s *WorkspaceService) Create(ctx context.Context, userID uuid.UUID, input CreateWorkspaceInput) (*domain.Workspace, error) {
	ws := &domain.Workspace{
		ID:        uuid.New(),
		Title:     input.Title,
		OwnerID:   userID,
		CreatedAt: time.Now(),
	}

	if err := s.workspaceRepo.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	member := &domain.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      userID,
		Role:        domain.RoleOwner,
		JoinedAt:    time.Now(),
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("adding owner as member: %w", err)
	}

	return ws, nil
}

func (s *WorkspaceService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	return s.workspaceRepo.ListByUser(ctx, userID)
}

func (s *WorkspaceService) ListMembers(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.WorkspaceMember, error) {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return s.workspaceRepo.ListMembers(ctx, workspaceID)
}

// Invite adds the user with the given email as a member and syncs them onto
// every board in the workspace.
func (s *WorkspaceService) Invite(ctx context.Context, requesterID, workspaceID uuid.UUID, input InviteInput) error {
	ws, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws == nil {
		return ErrWorkspaceNotFound
	}

	requester, err := s.workspaceRepo.GetMember(ctx, workspaceID, requesterID)
	if err != nil {
		return err
	}
	if requester == nil || requester.Role != domain.RoleOwner {
		return ErrNotWorkspaceOwner
	}

	invited, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if invited == nil {
		return ErrUserNotFound
	}

	existing, err := s.workspaceRepo.GetMember(ctx, workspaceID, invited.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyMember
	}

	member := &domain.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      invited.ID,
		Role:        domain.RoleMember,
		JoinedAt:    time.Now(),
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}

	if err := s.boardRepo.SyncWorkspaceMember(ctx, workspaceID, invited.ID); err != nil {
		return fmt.Errorf("syncing board membership: %w", err)
	}

	entry := &domain.ChangeLogEntry{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Action:      domain.ActionUserInvited,
		Title:       invited.Name,
		ActorID:     requesterID,
		Timestamp:   time.Now(),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending change log: %w", err)
	}

	if s.notifier != nil {
		s.notifier.UserInvited(workspaceID, invited.ID)
	}
	return nil
}

// Delete cascades children before the workspace itself: cards, then lists,
// then boards, then the change log, then members and the workspace row.
// Every step tolerates already-deleted rows, so a rerun after a partial
// failure finishes cleanly.
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	ws, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws == nil {
		return ErrWorkspaceNotFound
	}
	if ws.OwnerID != userID {
		return ErrNotWorkspaceOwner
	}

	boards, err := s.boardRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	for _, b := range boards {
		if err := s.cardRepo.DeleteByBoard(ctx, b.ID); err != nil {
			return fmt.Errorf("deleting cards of board %s: %w", b.ID, err)
		}
		if err := s.listRepo.DeleteByBoard(ctx, b.ID); err != nil {
			return fmt.Errorf("deleting lists of board %s: %w", b.ID, err)
		}
		if err := s.boardRepo.Delete(ctx, b.ID); err != nil {
			return fmt.Errorf("deleting board %s: %w", b.ID, err)
		}
	}

	if err := s.changeLog.DeleteByWorkspace(ctx, workspaceID); err != nil {
		return fmt.Errorf("deleting change log: %w", err)
	}

	return s.workspaceRepo.Delete(ctx, workspaceID)
}

// History returns the workspace's recent change-log entries, newest first.
func (s *WorkspaceService) History(ctx context.Context, userID, workspaceID uuid.UUID) ([]domain.ChangeLogEntry, error) {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return s.changeLog.RecentByWorkspace(ctx, workspaceID, historyLimit)
}
