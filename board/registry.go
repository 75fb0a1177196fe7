// Package board owns board and column definitions: membership, visibility,
// WIP limits and column ordering. The registry is the sole writer of board
// state.
package board

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard-api/access"
	"taskboard-api/domain"
)

// Persister mirrors registry state into durable storage after each commit.
type Persister interface {
	SaveBoard(ctx context.Context, b *domain.Board) error
}

// Registry holds the authoritative board set for the process.
type Registry struct {
	mu      sync.RWMutex
	boards  map[string]*domain.Board
	persist Persister
	logger  *log.Logger
}

// NewRegistry creates an empty registry backed by the given persister.
func NewRegistry(persist Persister, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Registry{
		boards:  make(map[string]*domain.Board),
		persist: persist,
		logger:  logger,
	}
}

// ColumnSpec describes a column to create or update.
type ColumnSpec struct {
	Name     string `json:"name"`
	WIPLimit int    `json:"wipLimit,omitempty"`
	Type     string `json:"columnType,omitempty"`
}

// Spec describes a board to create.
type Spec struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Visibility  domain.Visibility `json:"visibility,omitempty"`
	Columns     []ColumnSpec      `json:"columns,omitempty"`
}

// UpdateSpec carries optional board-level changes; nil fields are untouched.
type UpdateSpec struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Visibility  *domain.Visibility `json:"visibility,omitempty"`
}

// ColumnUpdateSpec carries optional column changes; nil fields are untouched.
// A zero WIP limit removes the limit and an empty type clears it.
type ColumnUpdateSpec struct {
	Name     *string `json:"name,omitempty"`
	WIPLimit *int    `json:"wipLimit,omitempty"`
	Type     *string `json:"columnType,omitempty"`
}

var defaultColumns = []ColumnSpec{
	{Name: "To Do", Type: "standard"},
	{Name: "In Progress", Type: "standard"},
	{Name: "Review", Type: "standard"},
	{Name: "Done", Type: "done"},
}

// Create validates the spec and registers a new board. Columns receive dense
// positions 0..n-1 and the creator becomes an admin member.
func (r *Registry) Create(ctx context.Context, spec Spec, actor domain.Actor) (*domain.Board, error) {
	if spec.Name == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "board name is required")
	}
	if spec.Visibility == "" {
		spec.Visibility = domain.VisibilityPrivate
	}
	if !domain.ValidVisibility(spec.Visibility) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid visibility %q", spec.Visibility)
	}
	cols := spec.Columns
	if len(cols) == 0 {
		cols = defaultColumns
	}
	now := time.Now().UTC()
	b := &domain.Board{
		ID:          uuid.NewString(),
		Name:        spec.Name,
		Description: spec.Description,
		Visibility:  spec.Visibility,
		CreatedBy:   actor.ID,
		Members:     []domain.Member{{UserID: actor.ID, Role: domain.RoleAdmin}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for i, cs := range cols {
		if cs.Name == "" {
			return nil, domain.Errf(domain.CodeValidationFailed, "column name is required")
		}
		b.Columns = append(b.Columns, domain.Column{
			ID:       uuid.NewString(),
			Name:     cs.Name,
			Position: i,
			WIPLimit: cs.WIPLimit,
			Type:     cs.Type,
		})
	}

	r.mu.Lock()
	r.boards[b.ID] = b
	snapshot := b.Clone()
	r.mu.Unlock()

	r.save(ctx, snapshot)
	return snapshot, nil
}

// Get returns a copy of the board, or BOARD_NOT_FOUND.
func (r *Registry) Get(id string) (*domain.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[id]
	if !ok {
		return nil, domain.Errf(domain.CodeBoardNotFound, "board %s not found", id)
	}
	return b.Clone(), nil
}

// ListForActor returns the boards the actor can read, ordered by creation time.
func (r *Registry) ListForActor(actor domain.Actor) []*domain.Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Board, 0, len(r.boards))
	for _, b := range r.boards {
		if access.CanRead(b, actor.ID) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Update applies board-level changes. Only the owner, an admin member or a
// super admin may manage a board.
func (r *Registry) Update(ctx context.Context, boardID string, spec UpdateSpec, actor domain.Actor) (*domain.Board, error) {
	if spec.Name != nil && *spec.Name == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "board name is required")
	}
	if spec.Visibility != nil && !domain.ValidVisibility(*spec.Visibility) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid visibility %q", *spec.Visibility)
	}
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		if spec.Name != nil {
			b.Name = *spec.Name
		}
		if spec.Description != nil {
			b.Description = *spec.Description
		}
		if spec.Visibility != nil {
			b.Visibility = *spec.Visibility
		}
		return nil
	})
}

// AddColumn appends a column at the next position.
func (r *Registry) AddColumn(ctx context.Context, boardID string, spec ColumnSpec, actor domain.Actor) (*domain.Board, error) {
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		if spec.Name == "" {
			return domain.Errf(domain.CodeValidationFailed, "column name is required")
		}
		b.Columns = append(b.Columns, domain.Column{
			ID:       uuid.NewString(),
			Name:     spec.Name,
			Position: len(b.Columns),
			WIPLimit: spec.WIPLimit,
			Type:     spec.Type,
		})
		return nil
	})
}

// UpdateColumn mutates an existing column's name, WIP limit or type.
func (r *Registry) UpdateColumn(ctx context.Context, boardID, columnID string, spec ColumnUpdateSpec, actor domain.Actor) (*domain.Board, error) {
	if spec.Name != nil && *spec.Name == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "column name is required")
	}
	if spec.WIPLimit != nil && *spec.WIPLimit < 0 {
		return nil, domain.Errf(domain.CodeValidationFailed, "wip limit must not be negative")
	}
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		col, ok := b.Column(columnID)
		if !ok {
			return domain.Errf(domain.CodeInvalidColumn, "column %s is not on board %s", columnID, boardID)
		}
		if spec.Name != nil {
			col.Name = *spec.Name
		}
		if spec.WIPLimit != nil {
			col.WIPLimit = *spec.WIPLimit
		}
		if spec.Type != nil {
			col.Type = *spec.Type
		}
		return nil
	})
}

// ReorderColumns reassigns positions 0..n-1 in the given order, atomically.
// orderedIDs must be exactly a permutation of the board's current column ids.
func (r *Registry) ReorderColumns(ctx context.Context, boardID string, orderedIDs []string, actor domain.Actor) (*domain.Board, error) {
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		if len(orderedIDs) != len(b.Columns) {
			return domain.Errf(domain.CodeInvalidColumnSet, "expected %d column ids, got %d", len(b.Columns), len(orderedIDs))
		}
		seen := make(map[string]bool, len(orderedIDs))
		reordered := make([]domain.Column, 0, len(b.Columns))
		for i, id := range orderedIDs {
			if seen[id] {
				return domain.Errf(domain.CodeInvalidColumnSet, "duplicate column id %s", id)
			}
			seen[id] = true
			col, ok := b.Column(id)
			if !ok {
				return domain.Errf(domain.CodeInvalidColumnSet, "column %s is not on board %s", id, boardID)
			}
			c := *col
			c.Position = i
			reordered = append(reordered, c)
		}
		b.Columns = reordered
		return nil
	})
}

// AddMember upserts a membership entry; adding an existing member updates
// their role.
func (r *Registry) AddMember(ctx context.Context, boardID, userID string, role domain.Role, actor domain.Actor) (*domain.Board, error) {
	return r.upsertMember(ctx, boardID, userID, role, actor)
}

// UpdateMemberRole changes an existing member's role; absent members are
// added. Both entry points share upsert semantics so the operation is
// idempotent.
func (r *Registry) UpdateMemberRole(ctx context.Context, boardID, userID string, role domain.Role, actor domain.Actor) (*domain.Board, error) {
	return r.upsertMember(ctx, boardID, userID, role, actor)
}

func (r *Registry) upsertMember(ctx context.Context, boardID, userID string, role domain.Role, actor domain.Actor) (*domain.Board, error) {
	if userID == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "member user id is required")
	}
	if !domain.ValidRole(role) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid member role %q", role)
	}
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		for i := range b.Members {
			if b.Members[i].UserID == userID {
				b.Members[i].Role = role
				return nil
			}
		}
		b.Members = append(b.Members, domain.Member{UserID: userID, Role: role})
		return nil
	})
}

// RemoveMember drops a membership entry. Removing the owner is rejected.
func (r *Registry) RemoveMember(ctx context.Context, boardID, userID string, actor domain.Actor) (*domain.Board, error) {
	return r.manage(ctx, boardID, actor, func(b *domain.Board) error {
		if userID == b.CreatedBy {
			return domain.Errf(domain.CodeValidationFailed, "board owner cannot be removed")
		}
		for i := range b.Members {
			if b.Members[i].UserID == userID {
				b.Members = append(b.Members[:i], b.Members[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// manage runs fn against the live board under the write lock, enforcing the
// board-management access rule and persisting on success.
func (r *Registry) manage(ctx context.Context, boardID string, actor domain.Actor, fn func(b *domain.Board) error) (*domain.Board, error) {
	r.mu.Lock()
	b, ok := r.boards[boardID]
	if !ok {
		r.mu.Unlock()
		return nil, domain.Errf(domain.CodeBoardNotFound, "board %s not found", boardID)
	}
	if !access.CanManageBoard(b, actor) {
		r.mu.Unlock()
		return nil, domain.Errf(domain.CodeBoardAccessDenied, "actor %s cannot manage board %s", actor.ID, boardID)
	}
	if err := fn(b); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	b.UpdatedAt = time.Now().UTC()
	snapshot := b.Clone()
	r.mu.Unlock()

	r.save(ctx, snapshot)
	return snapshot, nil
}

// save mirrors the board to storage. The in-memory commit is authoritative;
// persistence failures are logged, the storage client retries internally.
func (r *Registry) save(ctx context.Context, b *domain.Board) {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveBoard(ctx, b); err != nil {
		r.logger.WithFields(log.Fields{"board": b.ID, "error": err}).Error("board persist failed")
	}
}
