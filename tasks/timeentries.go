package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskboard-api/access"
	"taskboard-api/domain"
)

const maxHoursPerEntry = 24

// TimeEntryInput describes a unit of logged work. A nil Date defaults to now.
type TimeEntryInput struct {
	Hours       float64    `json:"hours"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"logDate,omitempty"`
}

// AddTimeEntry logs work against the task; requires write access. The task's
// ActualHours is recomputed as the full sum of entries, never adjusted
// incrementally.
func (s *Store) AddTimeEntry(ctx context.Context, taskID string, in TimeEntryInput, actor domain.Actor) (*domain.Task, error) {
	if in.Hours <= 0 || in.Hours > maxHoursPerEntry {
		return nil, domain.Errf(domain.CodeValidationFailed, "hours must be within (0,%d]", maxHoursPerEntry)
	}
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		now := time.Now().UTC()
		date := now
		if in.Date != nil {
			date = *in.Date
		}
		e := domain.TimeEntry{
			ID:          uuid.NewString(),
			Hours:       in.Hours,
			Description: in.Description,
			Date:        date,
			LoggedBy:    actor.Ref(),
			CreatedAt:   now,
		}
		t.TimeEntries = append(t.TimeEntries, e)
		t.RecomputeActualHours()
		env := s.record(t, domain.ActionTimeLogged, actor, domain.TimeEntryPayload{
			EntryID:    e.ID,
			Hours:      e.Hours,
			TotalHours: t.ActualHours,
		})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// DeleteTimeEntry removes a logged entry and recomputes ActualHours from the
// remaining entries.
func (s *Store) DeleteTimeEntry(ctx context.Context, taskID, entryID string, actor domain.Actor) (*domain.Task, error) {
	return s.mutate(ctx, taskID, actor, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		for i := range t.TimeEntries {
			if t.TimeEntries[i].ID != entryID {
				continue
			}
			hours := t.TimeEntries[i].Hours
			t.TimeEntries = append(t.TimeEntries[:i], t.TimeEntries[i+1:]...)
			t.RecomputeActualHours()
			env := s.record(t, domain.ActionTimeEntryDeleted, actor, domain.TimeEntryPayload{
				EntryID:    entryID,
				Hours:      hours,
				TotalHours: t.ActualHours,
			})
			return []domain.ActivityEnvelope{env}, nil
		}
		return nil, domain.Errf(domain.CodeTimeEntryNotFound, "time entry %s not found on task %s", entryID, taskID)
	})
}

// TimeEntries lists the task's logged work for actors with read access.
func (s *Store) TimeEntries(taskID string, actor domain.Actor) ([]domain.TimeEntry, error) {
	t, err := s.Get(taskID)
	if err != nil {
		return nil, err
	}
	b, err := s.boards.Get(t.BoardID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(b, actor.ID) {
		return nil, domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot access task %s", actor.ID, taskID)
	}
	return t.TimeEntries, nil
}
