// Package memory holds an in-memory implementation of the repository
// interfaces. It backs the service and reconciler tests; nothing in the
// server wires it up as ambient state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/velebit-dev/boardsync/internal/domain"
	"github.com/velebit-dev/boardsync/internal/repository"
)

// Store owns all entity maps behind one mutex. The per-entity repositories
// returned by its accessors are views over the same data, so cross-entity
// operations (revision CAS, cascades) stay consistent.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]domain.User
	workspaces   map[uuid.UUID]domain.Workspace
	wsMembers    map[uuid.UUID][]domain.WorkspaceMember
	boards       map[uuid.UUID]domain.Board
	boardMembers map[uuid.UUID]map[uuid.UUID]domain.BoardMember
	lists        map[uuid.UUID]domain.List
	cards        map[uuid.UUID]domain.Card
	comments     map[uuid.UUID][]domain.Comment
	log          []domain.ChangeLogEntry
}

func NewStore() *Store {
	return &Store{
		users:        make(map[uuid.UUID]domain.User),
		workspaces:   make(map[uuid.UUID]domain.Workspace),
		wsMembers:    make(map[uuid.UUID][]domain.WorkspaceMember),
		boards:       make(map[uuid.UUID]domain.Board),
		boardMembers: make(map[uuid.UUID]map[uuid.UUID]domain.BoardMember),
		lists:        make(map[uuid.UUID]domain.List),
		cards:        make(map[uuid.UUID]domain.Card),
		comments:     make(map[uuid.UUID][]domain.Comment),
	}
}

func (s *Store) Users() repository.UserRepository           { return &userRepo{s} }
func (s *Store) Workspaces() repository.WorkspaceRepository { return &workspaceRepo{s} }
func (s *Store) Boards() repository.BoardRepository         { return &boardRepo{s} }
func (s *Store) Lists() repository.ListRepository           { return &listRepo{s} }
func (s *Store) Cards() repository.CardRepository           { return &cardRepo{s} }
func (s *Store) Comments() repository.CommentRepository     { return &commentRepo{s} }
func (s *Store) ChangeLog() repository.ChangeLogRepository  { return &changeLogRepo{s} }

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// --- workspaces ---

type workspaceRepo struct{ s *Store }

func (r *workspaceRepo) Create(_ context.Context, ws *domain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.workspaces[ws.ID] = *ws
	return nil
}

func (r *workspaceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if ws, ok := r.s.workspaces[id]; ok {
		return &ws, nil
	}
	return nil, nil
}

func (r *workspaceRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Workspace
	for wsID, members := range r.s.wsMembers {
		for _, m := range members {
			if m.UserID == userID {
				if ws, ok := r.s.workspaces[wsID]; ok {
					out = append(out, ws)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *workspaceRepo) ListIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	workspaces, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(workspaces))
	for i, ws := range workspaces {
		ids[i] = ws.ID
	}
	return ids, nil
}

func (r *workspaceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.workspaces, id)
	delete(r.s.wsMembers, id)
	return nil
}

func (r *workspaceRepo) AddMember(_ context.Context, m *domain.WorkspaceMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.wsMembers[m.WorkspaceID] = append(r.s.wsMembers[m.WorkspaceID], *m)
	return nil
}

func (r *workspaceRepo) GetMember(_ context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.wsMembers[workspaceID] {
		if m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *workspaceRepo) ListMembers(_ context.Context, workspaceID uuid.UUID) ([]domain.WorkspaceMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	members := make([]domain.WorkspaceMember, len(r.s.wsMembers[workspaceID]))
	copy(members, r.s.wsMembers[workspaceID])
	return members, nil
}

// --- boards ---

type boardRepo struct{ s *Store }

func (r *boardRepo) Create(_ context.Context, b *domain.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.boards[b.ID] = *b
	return nil
}

func (r *boardRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Board, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.boards[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *boardRepo) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]domain.Board, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Board
	for _, b := range r.s.boards {
		if b.WorkspaceID == workspaceID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *boardRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.boards, id)
	delete(r.s.boardMembers, id)
	return nil
}

func (r *boardRepo) AddMember(_ context.Context, m *domain.BoardMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.boardMembers[m.BoardID] == nil {
		r.s.boardMembers[m.BoardID] = make(map[uuid.UUID]domain.BoardMember)
	}
	if _, ok := r.s.boardMembers[m.BoardID][m.UserID]; !ok {
		r.s.boardMembers[m.BoardID][m.UserID] = *m
	}
	return nil
}

func (r *boardRepo) IsMember(_ context.Context, boardID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.boardMembers[boardID][userID]
	return ok, nil
}

func (r *boardRepo) SyncWorkspaceMember(_ context.Context, workspaceID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, b := range r.s.boards {
		if b.WorkspaceID != workspaceID {
			continue
		}
		if r.s.boardMembers[id] == nil {
			r.s.boardMembers[id] = make(map[uuid.UUID]domain.BoardMember)
		}
		if _, ok := r.s.boardMembers[id][userID]; !ok {
			r.s.boardMembers[id][userID] = domain.BoardMember{BoardID: id, UserID: userID}
		}
	}
	return nil
}

// --- lists ---

type listRepo struct{ s *Store }

func (r *listRepo) Create(_ context.Context, l *domain.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lists[l.ID] = *l
	return nil
}

func (r *listRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.List, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.lists[id]; ok {
		return &l, nil
	}
	return nil, nil
}

func (r *listRepo) ListByBoard(_ context.Context, boardID uuid.UUID) ([]domain.List, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.List
	for _, l := range r.s.lists {
		if l.BoardID == boardID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *listRepo) DeleteByBoard(_ context.Context, boardID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.lists {
		if l.BoardID == boardID {
			delete(r.s.lists, id)
		}
	}
	return nil
}

func (r *listRepo) Reorder(_ context.Context, boardID uuid.UUID, expectedRevision int64, placements []repository.ListPlacement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.bumpRevision(boardID, expectedRevision); err != nil {
		return err
	}
	for _, p := range placements {
		l, ok := r.s.lists[p.ListID]
		if !ok {
			continue
		}
		l.Position = p.Position
		r.s.lists[p.ListID] = l
	}
	return nil
}

// --- cards ---

type cardRepo struct{ s *Store }

func (r *cardRepo) Create(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cards[c.ID] = *c
	return nil
}

func (r *cardRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.cards[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *cardRepo) ListByBoard(_ context.Context, boardID uuid.UUID) ([]domain.Card, error) {
	return r.listByBoards([]uuid.UUID{boardID})
}

func (r *cardRepo) ListByBoards(_ context.Context, boardIDs []uuid.UUID) ([]domain.Card, error) {
	return r.listByBoards(boardIDs)
}

func (r *cardRepo) listByBoards(boardIDs []uuid.UUID) ([]domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[uuid.UUID]struct{}, len(boardIDs))
	for _, id := range boardIDs {
		want[id] = struct{}{}
	}
	var out []domain.Card
	for _, c := range r.s.cards {
		if _, ok := want[c.BoardID]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BoardID != out[j].BoardID {
			return out[i].BoardID.String() < out[j].BoardID.String()
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *cardRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.cards, id)
	return nil
}

func (r *cardRepo) DeleteByBoard(_ context.Context, boardID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.cards {
		if c.BoardID == boardID {
			delete(r.s.cards, id)
		}
	}
	return nil
}

func (r *cardRepo) Search(_ context.Context, boardID uuid.UUID, query string) ([]domain.Card, error) {
	cards, err := r.listByBoards([]uuid.UUID{boardID})
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []domain.Card
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Title), q) || strings.Contains(strings.ToLower(c.Description), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *cardRepo) ApplyMove(_ context.Context, revisions []repository.BoardRevision, placements []repository.CardPlacement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// Validate every guard before bumping any, so a conflict leaves all
	// boards untouched.
	for _, rev := range revisions {
		b, ok := r.s.boards[rev.BoardID]
		if !ok || b.Revision != rev.Revision {
			return repository.ErrRevisionConflict
		}
	}
	for _, rev := range revisions {
		b := r.s.boards[rev.BoardID]
		b.Revision++
		r.s.boards[rev.BoardID] = b
	}
	for _, p := range placements {
		c, ok := r.s.cards[p.CardID]
		if !ok {
			continue
		}
		c.BoardID = p.BoardID
		c.Position = p.Position
		r.s.cards[p.CardID] = c
	}
	return nil
}

// bumpRevision is the memory counterpart of the SQL compare-and-swap.
// Caller holds the write lock.
func (s *Store) bumpRevision(boardID uuid.UUID, expected int64) error {
	b, ok := s.boards[boardID]
	if !ok || b.Revision != expected {
		return repository.ErrRevisionConflict
	}
	b.Revision++
	s.boards[boardID] = b
	return nil
}

// --- comments ---

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.comments[c.CardID] = append(r.s.comments[c.CardID], *c)
	return nil
}

func (r *commentRepo) ListByCard(_ context.Context, cardID uuid.UUID) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Comment, len(r.s.comments[cardID]))
	copy(out, r.s.comments[cardID])
	return out, nil
}

// --- change log ---

type changeLogRepo struct{ s *Store }

func (r *changeLogRepo) Append(_ context.Context, e *domain.ChangeLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.log = append(r.s.log, *e)
	return nil
}

func (r *changeLogRepo) RecentByWorkspace(_ context.Context, workspaceID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return recent(r.s.log, limit, func(e domain.ChangeLogEntry) bool {
		return e.WorkspaceID == workspaceID
	}), nil
}

func (r *changeLogRepo) RecentByBoard(_ context.Context, boardID uuid.UUID, limit int) ([]domain.ChangeLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return recent(r.s.log, limit, func(e domain.ChangeLogEntry) bool {
		if e.BoardID != nil && *e.BoardID == boardID {
			return true
		}
		if e.FromBoardID != nil && *e.FromBoardID == boardID {
			return true
		}
		return e.ToBoardID != nil && *e.ToBoardID == boardID
	}), nil
}

func (r *changeLogRepo) DeleteByWorkspace(_ context.Context, workspaceID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.log[:0]
	for _, e := range r.s.log {
		if e.WorkspaceID != workspaceID {
			kept = append(kept, e)
		}
	}
	r.s.log = kept
	return nil
}

func recent(log []domain.ChangeLogEntry, limit int, match func(domain.ChangeLogEntry) bool) []domain.ChangeLogEntry {
	var out []domain.ChangeLogEntry
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		if match(log[i]) {
			out = append(out, log[i])
		}
	}
	return out
}
