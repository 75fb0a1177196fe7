package tasks

import (
	"context"

	"taskboard-api/access"
	"taskboard-api/domain"
)

// moveRetries bounds how often a move re-reads the task's placement when a
// concurrent move shifted it between the snapshot and the lock acquisition.
const moveRetries = 3

// Move relocates the task to (targetColumnID, targetPosition) on its own
// board, keeping every touched column dense. Cross-board targets are
// rejected with INVALID_COLUMN. Both columns are locked in a fixed global
// order; the reindex either fully applies or not at all.
func (s *Store) Move(ctx context.Context, taskID, targetColumnID string, targetPosition int, actor domain.Actor) (*domain.Task, error) {
	if targetPosition < 0 {
		return nil, domain.Errf(domain.CodeValidationFailed, "position must not be negative")
	}

	b, err := s.boardOf(taskID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Column(targetColumnID); !ok {
		return nil, domain.Errf(domain.CodeInvalidColumn, "column %s is not on board %s", targetColumnID, b.ID)
	}

	for attempt := 0; attempt < moveRetries; attempt++ {
		s.mu.RLock()
		t, ok := s.tasks[taskID]
		var sourceColumnID string
		if ok {
			sourceColumnID = t.ColumnID
		}
		s.mu.RUnlock()
		if !ok {
			return nil, domain.Errf(domain.CodeTaskNotFound, "task %s not found", taskID)
		}

		unlock := s.lockColumns(
			columnKey(b.ID, sourceColumnID),
			columnKey(b.ID, targetColumnID),
		)
		snap, env, retry, err := s.applyMove(taskID, sourceColumnID, targetColumnID, targetPosition, b, actor)
		unlock()
		if err != nil {
			return nil, err
		}
		if retry {
			continue
		}

		s.persistTasks(ctx, snap.changed...)
		s.publish(ctx, env)
		return snap.moved, nil
	}
	return nil, domain.Errf(domain.CodeConcurrencyConflict, "task %s kept moving under concurrent reindexing", taskID)
}

type moveResult struct {
	moved   *domain.Task
	changed []*domain.Task
}

// applyMove performs the reindex under the store lock. It reports retry=true
// when the task's column no longer matches the locked source column. The new
// layout is committed only after both orderings are complete, so a failure
// can never leave a duplicate or missing position behind.
func (s *Store) applyMove(taskID, sourceColumnID, targetColumnID string, targetPosition int, b *domain.Board, actor domain.Actor) (moveResult, domain.ActivityEnvelope, bool, error) {
	var none domain.ActivityEnvelope

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return moveResult{}, none, false, domain.Errf(domain.CodeTaskNotFound, "task %s not found", taskID)
	}
	if t.ColumnID != sourceColumnID {
		return moveResult{}, none, true, nil
	}
	if !access.CanWrite(t, b, actor) {
		return moveResult{}, none, false, domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot modify task %s", actor.ID, taskID)
	}
	if t.IsArchived {
		return moveResult{}, none, false, domain.Errf(domain.CodeValidationFailed, "task %s is archived", taskID)
	}

	from := domain.Placement{ColumnID: t.ColumnID, Position: t.Position}

	var changed []*domain.Task
	if sourceColumnID == targetColumnID {
		order := withoutTask(s.activeColumnOrder(b.ID, sourceColumnID), taskID)
		idx := clamp(targetPosition, len(order))
		order = insertAt(order, t, idx)
		changed = renumber(order)
	} else {
		source := withoutTask(s.activeColumnOrder(b.ID, sourceColumnID), taskID)
		dest := s.activeColumnOrder(b.ID, targetColumnID)
		idx := clamp(targetPosition, len(dest))
		dest = insertAt(dest, t, idx)
		t.ColumnID = targetColumnID
		changed = append(renumber(source), renumber(dest)...)
	}
	changed = ensureTask(changed, t)

	env := s.record(t, domain.ActionMoved, actor, domain.MovedPayload{
		From: from,
		To:   domain.Placement{ColumnID: t.ColumnID, Position: t.Position},
	})
	t.UpdatedAt = env.Entry.At

	snaps := cloneAll(changed)
	return moveResult{moved: findSnap(snaps, taskID), changed: snaps}, env, false, nil
}

func withoutTask(order []*domain.Task, taskID string) []*domain.Task {
	out := order[:0]
	for _, t := range order {
		if t.ID != taskID {
			out = append(out, t)
		}
	}
	return out
}

func insertAt(order []*domain.Task, t *domain.Task, idx int) []*domain.Task {
	order = append(order, nil)
	copy(order[idx+1:], order[idx:])
	order[idx] = t
	return order
}

func clamp(pos, max int) int {
	if pos > max {
		return max
	}
	return pos
}
