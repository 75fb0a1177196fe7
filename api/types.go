package api

import (
	"context"

	"taskboard-api/board"
	"taskboard-api/domain"
	"taskboard-api/tasks"
)

// Registry abstracts the board registry for handlers.
type Registry interface {
	Create(ctx context.Context, spec board.Spec, actor domain.Actor) (*domain.Board, error)
	Get(boardID string) (*domain.Board, error)
	ListForActor(actor domain.Actor) []*domain.Board
	Update(ctx context.Context, boardID string, spec board.UpdateSpec, actor domain.Actor) (*domain.Board, error)
	AddColumn(ctx context.Context, boardID string, spec board.ColumnSpec, actor domain.Actor) (*domain.Board, error)
	UpdateColumn(ctx context.Context, boardID, columnID string, spec board.ColumnUpdateSpec, actor domain.Actor) (*domain.Board, error)
	ReorderColumns(ctx context.Context, boardID string, orderedIDs []string, actor domain.Actor) (*domain.Board, error)
	AddMember(ctx context.Context, boardID, userID string, role domain.Role, actor domain.Actor) (*domain.Board, error)
	UpdateMemberRole(ctx context.Context, boardID, userID string, role domain.Role, actor domain.Actor) (*domain.Board, error)
	RemoveMember(ctx context.Context, boardID, userID string, actor domain.Actor) (*domain.Board, error)
}

// TaskStore abstracts the task store and its sub-resource managers.
type TaskStore interface {
	Create(ctx context.Context, in tasks.CreateInput, actor domain.Actor) (*domain.Task, error)
	Get(taskID string) (*domain.Task, error)
	Update(ctx context.Context, taskID string, in tasks.UpdateInput, actor domain.Actor) (*domain.Task, error)
	Move(ctx context.Context, taskID, targetColumnID string, targetPosition int, actor domain.Actor) (*domain.Task, error)
	AssignTo(ctx context.Context, taskID, assigneeID string, actor domain.Actor) (*domain.Task, error)
	UpdateStatus(ctx context.Context, taskID string, to domain.Status, actor domain.Actor) (*domain.Task, error)
	UpdateChecklist(ctx context.Context, taskID string, items []domain.ChecklistItem, actor domain.Actor) (*domain.Task, error)
	Archive(ctx context.Context, taskID string, actor domain.Actor) (*domain.Task, error)
	Activity(taskID string) ([]domain.ActivityEntry, error)
	AddDependency(ctx context.Context, taskID string, dep domain.Dependency, actor domain.Actor) (*domain.Task, error)
	RemoveDependency(ctx context.Context, taskID string, dep domain.Dependency, actor domain.Actor) (*domain.Task, error)

	AddComment(ctx context.Context, taskID string, in tasks.CommentInput, actor domain.Actor) (*domain.Task, error)
	EditComment(ctx context.Context, taskID, commentID, content string, actor domain.Actor) (*domain.Task, error)
	DeleteComment(ctx context.Context, taskID, commentID string, actor domain.Actor) (*domain.Task, error)
	AddSubtask(ctx context.Context, taskID string, in tasks.SubtaskInput, actor domain.Actor) (*domain.Task, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID string, in tasks.SubtaskUpdate, actor domain.Actor) (*domain.Task, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID string, actor domain.Actor) (*domain.Task, error)
	AddTimeEntry(ctx context.Context, taskID string, in tasks.TimeEntryInput, actor domain.Actor) (*domain.Task, error)
	DeleteTimeEntry(ctx context.Context, taskID, entryID string, actor domain.Actor) (*domain.Task, error)
	TimeEntries(taskID string, actor domain.Actor) ([]domain.TimeEntry, error)
	AddWatcher(ctx context.Context, taskID, userID string, kind domain.ActorKind, actor domain.Actor) (*domain.Task, error)
	RemoveWatcher(ctx context.Context, taskID, userID string, kind domain.ActorKind, actor domain.Actor) (*domain.Task, error)
}

// Listings serves cached board task listings.
type Listings interface {
	BoardTasks(ctx context.Context, boardID string) ([]domain.Task, error)
}

// Authenticator resolves the acting identity from an Authorization header.
type Authenticator interface {
	ActorFromAuthHeader(header string) (domain.Actor, error)
}

// response is the uniform envelope for all endpoints.
type response struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

const requestBodyMaxSize = 256 * 1024 // 256 KiB
