// Package tasks owns task entities, their placement and lifecycle. All
// mutations flow through the Store so position invariants stay intact and
// every state change lands in the activity log exactly once.
package tasks

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

// BoardSource resolves board definitions for column validation and access
// checks.
type BoardSource interface {
	Get(boardID string) (*domain.Board, error)
}

// Persister mirrors committed task state into durable storage and hands
// activity entries to the event queue.
type Persister interface {
	SaveTask(ctx context.Context, t *domain.Task) error
	PublishActivity(ctx context.Context, env domain.ActivityEnvelope) error
}

// Store holds the authoritative task set for the process. The map mutex
// guards commits; per-column mutexes serialize position reindexing.
type Store struct {
	mu      sync.RWMutex
	tasks   map[string]*domain.Task
	boards  BoardSource
	persist Persister
	logger  *log.Logger
	cols    sync.Map // column key -> *sync.Mutex
}

// NewStore creates an empty store over the given board source and persister.
func NewStore(boards BoardSource, persist Persister, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		tasks:   make(map[string]*domain.Task),
		boards:  boards,
		persist: persist,
		logger:  logger,
	}
}

// CreateInput describes a task to create. A nil Position appends at the end
// of the column.
type CreateInput struct {
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Type           string          `json:"taskType,omitempty"`
	Priority       domain.Priority `json:"priority,omitempty"`
	BoardID        string          `json:"boardId"`
	ColumnID       string          `json:"columnId"`
	SprintID       string          `json:"sprintId,omitempty"`
	AssigneeID     string          `json:"assigneeId,omitempty"`
	Position       *int            `json:"position,omitempty"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	EstimatedHours float64         `json:"estimatedHours,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
}

// Create validates the input against the target board, places the task and
// records a `created` entry. Creation requires read access to the board.
func (s *Store) Create(ctx context.Context, in CreateInput, actor domain.Actor) (*domain.Task, error) {
	b, err := s.boards.Get(in.BoardID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(b, actor.ID) {
		return nil, domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot create tasks on board %s", actor.ID, in.BoardID)
	}
	if in.Title == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "task title is required")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(in.Priority) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid priority %q", in.Priority)
	}
	if _, ok := b.Column(in.ColumnID); !ok {
		return nil, domain.Errf(domain.CodeInvalidColumn, "column %s is not on board %s", in.ColumnID, in.BoardID)
	}
	if in.Position != nil && *in.Position < 0 {
		return nil, domain.Errf(domain.CodeValidationFailed, "position must not be negative")
	}

	now := time.Now().UTC()
	t := &domain.Task{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Type:           in.Type,
		Status:         domain.StatusTodo,
		Priority:       in.Priority,
		AssigneeID:     in.AssigneeID,
		CreatedBy:      actor.Ref(),
		BoardID:        in.BoardID,
		ColumnID:       in.ColumnID,
		SprintID:       in.SprintID,
		DueDate:        in.DueDate,
		EstimatedHours: in.EstimatedHours,
		Tags:           in.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	unlock := s.lockColumns(columnKey(in.BoardID, in.ColumnID))
	s.mu.Lock()
	order := s.activeColumnOrder(in.BoardID, in.ColumnID)
	idx := len(order)
	if in.Position != nil && *in.Position < idx {
		idx = *in.Position
	}
	order = append(order, nil)
	copy(order[idx+1:], order[idx:])
	order[idx] = t
	changed := ensureTask(renumber(order), t)
	s.tasks[t.ID] = t
	env := s.record(t, domain.ActionCreated, actor, domain.CreatedPayload{
		Placement: domain.Placement{ColumnID: t.ColumnID, Position: t.Position},
	})
	snaps := cloneAll(changed)
	s.mu.Unlock()
	unlock()

	s.persistTasks(ctx, snaps...)
	s.publish(ctx, env)
	return findSnap(snaps, t.ID), nil
}

// Get returns a copy of the task, archived or not, or TASK_NOT_FOUND.
func (s *Store) Get(taskID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.Errf(domain.CodeTaskNotFound, "task %s not found", taskID)
	}
	return t.Clone(), nil
}

// Activity returns the task's append-only history ordered by (At, Seq).
func (s *Store) Activity(taskID string) ([]domain.ActivityEntry, error) {
	t, err := s.Get(taskID)
	if err != nil {
		return nil, err
	}
	return t.Activity, nil
}

// ActiveBoardTasks lists the board's non-archived tasks ordered by column
// position then task position. Positions are reported as dense ranks within
// each column, so slots vacated by archival never surface to readers.
func (s *Store) ActiveBoardTasks(boardID string) ([]domain.Task, error) {
	b, err := s.boards.Get(boardID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	byColumn := make(map[string][]*domain.Task)
	for _, t := range s.tasks {
		if t.BoardID == boardID && !t.IsArchived {
			byColumn[t.ColumnID] = append(byColumn[t.ColumnID], t)
		}
	}
	out := make([]domain.Task, 0, len(s.tasks))
	cols := append([]domain.Column(nil), b.Columns...)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
	for _, col := range cols {
		group := byColumn[col.ID]
		sortByPosition(group)
		for rank, t := range group {
			cp := t.Clone()
			cp.Position = rank
			out = append(out, *cp)
		}
	}
	s.mu.RUnlock()
	return out, nil
}

// boardOf looks the task up and loads its board. Callers must not hold the
// store mutex.
func (s *Store) boardOf(taskID string) (*domain.Board, error) {
	s.mu.RLock()
	t, ok := s.tasks[taskID]
	var boardID string
	if ok {
		boardID = t.BoardID
	}
	s.mu.RUnlock()
	if !ok {
		return nil, domain.Errf(domain.CodeTaskNotFound, "task %s not found", taskID)
	}
	b, err := s.boards.Get(boardID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// guardFunc decides whether the actor may run an operation against the live
// task. It runs under the store lock before any mutation.
type guardFunc func(t *domain.Task, b *domain.Board) error

func writeGuard(actor domain.Actor) guardFunc {
	return func(t *domain.Task, b *domain.Board) error {
		if !access.CanWrite(t, b, actor) {
			return domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot modify task %s", actor.ID, t.ID)
		}
		return nil
	}
}

func readGuard(actor domain.Actor) guardFunc {
	return func(t *domain.Task, b *domain.Board) error {
		if !access.CanRead(b, actor.ID) {
			return domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot access task %s", actor.ID, t.ID)
		}
		return nil
	}
}

// mutate applies fn to the live task under the store lock after the write
// access check, then persists the snapshot and publishes collected activity.
// Archived tasks reject all mutation.
func (s *Store) mutate(ctx context.Context, taskID string, actor domain.Actor, fn func(t *domain.Task, b *domain.Board) ([]domain.ActivityEnvelope, error)) (*domain.Task, error) {
	return s.mutateGuarded(ctx, taskID, writeGuard(actor), fn)
}

// mutateGuarded is mutate with a caller-chosen access rule.
func (s *Store) mutateGuarded(ctx context.Context, taskID string, guard guardFunc, fn func(t *domain.Task, b *domain.Board) ([]domain.ActivityEnvelope, error)) (*domain.Task, error) {
	b, err := s.boardOf(taskID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.Errf(domain.CodeTaskNotFound, "task %s not found", taskID)
	}
	if err := guard(t, b); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if t.IsArchived {
		s.mu.Unlock()
		return nil, domain.Errf(domain.CodeValidationFailed, "task %s is archived", taskID)
	}
	envs, err := fn(t, b)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	t.UpdatedAt = time.Now().UTC()
	snap := t.Clone()
	s.mu.Unlock()

	s.persistTasks(ctx, snap)
	s.publish(ctx, envs...)
	return snap, nil
}

// UpdateInput carries optional field changes; nil fields are untouched.
type UpdateInput struct {
	Title          *string          `json:"title,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Type           *string          `json:"taskType,omitempty"`
	Priority       *domain.Priority `json:"priority,omitempty"`
	SprintID       *string          `json:"sprintId,omitempty"`
	DueDate        *time.Time       `json:"dueDate,omitempty"`
	ClearDueDate   bool             `json:"clearDueDate,omitempty"`
	EstimatedHours *float64         `json:"estimatedHours,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	// Percentage is honored only while the checklist is empty.
	Percentage *int `json:"percentage,omitempty"`
}

// Update applies primary-field changes and records a single `updated` entry
// naming the touched fields.
func (s *Store) Update(ctx context.Context, taskID string, in UpdateInput, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		// Validate the whole input before touching the task, so a rejected
		// payload never leaves earlier fields behind.
		if in.Title != nil && *in.Title == "" {
			return nil, domain.Errf(domain.CodeValidationFailed, "task title is required")
		}
		if in.Priority != nil && !domain.ValidPriority(*in.Priority) {
			return nil, domain.Errf(domain.CodeValidationFailed, "invalid priority %q", *in.Priority)
		}
		if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
			return nil, domain.Errf(domain.CodeValidationFailed, "estimated hours must not be negative")
		}
		if in.Percentage != nil {
			if len(t.Progress.Checklist) > 0 {
				return nil, domain.Errf(domain.CodeValidationFailed, "progress is derived from the checklist while it is non-empty")
			}
			if *in.Percentage < 0 || *in.Percentage > 100 {
				return nil, domain.Errf(domain.CodeValidationFailed, "percentage must be within 0..100")
			}
		}

		var fields []string
		if in.Title != nil {
			t.Title = *in.Title
			fields = append(fields, "title")
		}
		if in.Description != nil {
			t.Description = *in.Description
			fields = append(fields, "description")
		}
		if in.Type != nil {
			t.Type = *in.Type
			fields = append(fields, "taskType")
		}
		if in.Priority != nil {
			t.Priority = *in.Priority
			fields = append(fields, "priority")
		}
		if in.SprintID != nil {
			t.SprintID = *in.SprintID
			fields = append(fields, "sprintId")
		}
		if in.ClearDueDate {
			t.DueDate = nil
			fields = append(fields, "dueDate")
		} else if in.DueDate != nil {
			due := *in.DueDate
			t.DueDate = &due
			fields = append(fields, "dueDate")
		}
		if in.EstimatedHours != nil {
			t.EstimatedHours = *in.EstimatedHours
			fields = append(fields, "estimatedHours")
		}
		if in.Tags != nil {
			t.Tags = append([]string(nil), in.Tags...)
			fields = append(fields, "tags")
		}
		if in.Percentage != nil {
			t.Progress.Percentage = *in.Percentage
			fields = append(fields, "percentage")
		}
		if len(fields) == 0 {
			return nil, domain.Errf(domain.CodeValidationFailed, "no fields to update")
		}
		env := s.record(t, domain.ActionUpdated, actor, domain.UpdatedPayload{Fields: fields})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// AssignTo sets or clears the assignee and records an `assigned` entry.
func (s *Store) AssignTo(ctx context.Context, taskID, assigneeID string, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		from := t.AssigneeID
		t.AssigneeID = assigneeID
		env := s.record(t, domain.ActionAssigned, actor, domain.AssignedPayload{From: from, To: assigneeID})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// UpdateStatus transitions the task's status. Entering `done` stamps
// completion and forces progress to 100; leaving `done` clears completion.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, to domain.Status, actor domain.Actor) (*domain.Task, error) {
	if !domain.ValidStatus(to) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid status %q", to)
	}
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		if t.Status == to {
			return nil, nil
		}
		env := s.transitionStatus(t, to, actor)
		return []domain.ActivityEnvelope{env}, nil
	})
}

// UpdateChecklist replaces the checklist and recomputes the derived
// percentage. Reaching 100% auto-transitions the task to `done` with the
// same side effects as UpdateStatus, recorded as its own entry.
func (s *Store) UpdateChecklist(ctx context.Context, taskID string, items []domain.ChecklistItem, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		list := make([]domain.ChecklistItem, len(items))
		done := 0
		for i, item := range items {
			if item.Text == "" {
				return nil, domain.Errf(domain.CodeValidationFailed, "checklist item text is required")
			}
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if item.Done {
				done++
			}
			list[i] = item
		}
		t.Progress.Checklist = list
		pct := t.ChecklistCompletion()
		if len(list) > 0 {
			t.Progress.Percentage = pct
		}
		envs := []domain.ActivityEnvelope{
			s.record(t, domain.ActionChecklistUpdated, actor, domain.ChecklistPayload{
				Completed:  done,
				Total:      len(list),
				Percentage: t.Progress.Percentage,
			}),
		}
		if len(list) > 0 && pct == 100 && t.Status != domain.StatusDone {
			envs = append(envs, s.transitionStatus(t, domain.StatusDone, actor))
		}
		return envs, nil
	})
}

// transitionStatus applies the shared done/undone bookkeeping and records
// the status_changed entry. Callers hold the store lock.
func (s *Store) transitionStatus(t *domain.Task, to domain.Status, actor domain.Actor) domain.ActivityEnvelope {
	from := t.Status
	t.Status = to
	if to == domain.StatusDone {
		now := time.Now().UTC()
		t.CompletedAt = &now
		t.CompletedBy = actor.ID
		t.Progress.Percentage = 100
	} else if from == domain.StatusDone {
		t.CompletedAt = nil
		t.CompletedBy = ""
		if len(t.Progress.Checklist) > 0 {
			t.Progress.Percentage = t.ChecklistCompletion()
		}
	}
	return s.record(t, domain.ActionStatusChanged, actor, domain.StatusPayload{From: from, To: to})
}

// Archive marks the task terminal. Other tasks' stored positions are left
// untouched; the vacated slot heals on the column's next reindexing
// operation, and active listings already report dense ranks.
func (s *Store) Archive(ctx context.Context, taskID string, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		now := time.Now().UTC()
		t.IsArchived = true
		t.ArchivedAt = &now
		t.ArchivedBy = actor.ID
		env := s.record(t, domain.ActionArchived, actor, domain.ArchivedPayload{
			Placement: domain.Placement{ColumnID: t.ColumnID, Position: t.Position},
		})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// AddDependency records a typed edge to another task.
func (s *Store) AddDependency(ctx context.Context, taskID string, dep domain.Dependency, actor domain.Actor) (*domain.Task, error) {
	if !domain.ValidDependencyKind(dep.Kind) {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid dependency kind %q", dep.Kind)
	}
	if dep.TaskID == taskID {
		return nil, domain.Errf(domain.CodeInvalidDependency, "task cannot depend on itself")
	}
	if _, err := s.Get(dep.TaskID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		for _, d := range t.Dependencies {
			if d.TaskID == dep.TaskID && d.Kind == dep.Kind {
				return nil, domain.Errf(domain.CodeInvalidDependency, "dependency already exists")
			}
		}
		t.Dependencies = append(t.Dependencies, dep)
		env := s.record(t, domain.ActionDependencyAdded, actor, domain.DependencyPayload{TaskID: dep.TaskID, Kind: dep.Kind})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// RemoveDependency drops a typed edge.
func (s *Store) RemoveDependency(ctx context.Context, taskID string, dep domain.Dependency, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		for i, d := range t.Dependencies {
			if d.TaskID == dep.TaskID && d.Kind == dep.Kind {
				t.Dependencies = append(t.Dependencies[:i], t.Dependencies[i+1:]...)
				env := s.record(t, domain.ActionDependencyRemoved, actor, domain.DependencyPayload{TaskID: dep.TaskID, Kind: dep.Kind})
				return []domain.ActivityEnvelope{env}, nil
			}
		}
		return nil, domain.Errf(domain.CodeInvalidDependency, "dependency not found")
	})
}

// persistTasks mirrors snapshots to storage. The in-memory commit is
// authoritative; persistence failures are logged and the storage client
// retries internally.
func (s *Store) persistTasks(ctx context.Context, snaps ...*domain.Task) {
	if s.persist == nil {
		return
	}
	for _, snap := range snaps {
		if err := s.persist.SaveTask(ctx, snap); err != nil {
			s.logger.WithFields(log.Fields{"task": snap.ID, "board": snap.BoardID, "error": err}).Error("task persist failed")
		}
	}
}

func (s *Store) publish(ctx context.Context, envs ...domain.ActivityEnvelope) {
	if s.persist == nil {
		return
	}
	for _, env := range envs {
		if err := s.persist.PublishActivity(ctx, env); err != nil {
			s.logger.WithFields(log.Fields{"task": env.Entry.TaskID, "action": env.Entry.Action, "error": err}).Error("activity publish failed")
		}
	}
}

func cloneAll(ts []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

func findSnap(snaps []*domain.Task, id string) *domain.Task {
	for _, s := range snaps {
		if s.ID == id {
			return s
		}
	}
	return nil
}
