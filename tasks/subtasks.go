package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskboard-api/domain"
)

const (
	subtaskTitleMinLen = 3
	subtaskTitleMaxLen = 200
)

// SubtaskInput describes a subtask to add.
type SubtaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// AddSubtask appends a subtask; requires write access to the parent task.
func (s *Store) AddSubtask(ctx context.Context, taskID string, in SubtaskInput, actor domain.Actor) (*domain.Task, error) {
	if len(in.Title) < subtaskTitleMinLen || len(in.Title) > subtaskTitleMaxLen {
		return nil, domain.Errf(domain.CodeValidationFailed, "subtask title must be %d..%d characters", subtaskTitleMinLen, subtaskTitleMaxLen)
	}
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		st := domain.Subtask{
			ID:          uuid.NewString(),
			Title:       in.Title,
			Description: in.Description,
			AssigneeID:  in.AssigneeID,
			Status:      domain.SubtaskPending,
			DueDate:     in.DueDate,
			CreatedBy:   actor.Ref(),
			CreatedAt:   time.Now().UTC(),
		}
		t.Subtasks = append(t.Subtasks, st)
		env := s.record(t, domain.ActionSubtaskAdded, actor, domain.SubtaskPayload{SubtaskID: st.ID, Status: st.Status})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// SubtaskUpdate carries optional subtask changes; nil fields are untouched.
type SubtaskUpdate struct {
	Title       *string               `json:"title,omitempty"`
	Description *string               `json:"description,omitempty"`
	AssigneeID  *string               `json:"assigneeId,omitempty"`
	DueDate     *time.Time            `json:"dueDate,omitempty"`
	Status      *domain.SubtaskStatus `json:"status,omitempty"`
}

// UpdateSubtask mutates an embedded subtask. Moving to `completed` stamps
// CompletedAt; moving away clears it, mirroring the parent task's done
// semantics.
func (s *Store) UpdateSubtask(ctx context.Context, taskID, subtaskID string, in SubtaskUpdate, actor domain.Actor) (*domain.Task, error) {
	if in.Title != nil && (len(*in.Title) < subtaskTitleMinLen || len(*in.Title) > subtaskTitleMaxLen) {
		return nil, domain.Errf(domain.CodeValidationFailed, "subtask title must be %d..%d characters", subtaskTitleMinLen, subtaskTitleMaxLen)
	}
	if in.Status != nil && *in.Status != domain.SubtaskPending && *in.Status != domain.SubtaskCompleted {
		return nil, domain.Errf(domain.CodeValidationFailed, "invalid subtask status %q", *in.Status)
	}
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		st, ok := t.Subtask(subtaskID)
		if !ok {
			return nil, domain.Errf(domain.CodeSubtaskNotFound, "subtask %s not found on task %s", subtaskID, taskID)
		}
		if in.Title != nil {
			st.Title = *in.Title
		}
		if in.Description != nil {
			st.Description = *in.Description
		}
		if in.AssigneeID != nil {
			st.AssigneeID = *in.AssigneeID
		}
		if in.DueDate != nil {
			due := *in.DueDate
			st.DueDate = &due
		}
		if in.Status != nil && *in.Status != st.Status {
			switch *in.Status {
			case domain.SubtaskCompleted:
				now := time.Now().UTC()
				st.Status = domain.SubtaskCompleted
				st.CompletedAt = &now
			case domain.SubtaskPending:
				st.Status = domain.SubtaskPending
				st.CompletedAt = nil
			}
		}
		env := s.record(t, domain.ActionSubtaskUpdated, actor, domain.SubtaskPayload{SubtaskID: subtaskID, Status: st.Status})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// DeleteSubtask removes an embedded subtask.
func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID string, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
				env := s.record(t, domain.ActionSubtaskDeleted, actor, domain.SubtaskPayload{SubtaskID: subtaskID})
				return []domain.ActivityEnvelope{env}, nil
			}
		}
		return nil, domain.Errf(domain.CodeSubtaskNotFound, "subtask %s not found on task %s", subtaskID, taskID)
	})
}
