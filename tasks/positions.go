package tasks

import (
	"sort"
	"sync"

	"taskboard-api/domain"
)

func columnKey(boardID, columnID string) string {
	return boardID + "/" + columnID
}

// lockColumns acquires the mutexes for the given column keys in ascending
// key order, so two concurrent cross-column moves in opposite directions
// can never deadlock. The returned func releases them in reverse order.
func (s *Store) lockColumns(keys ...string) func() {
	uniq := keys[:0]
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	locked := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		v, _ := s.cols.LoadOrStore(k, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		locked = append(locked, mu)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}

// activeColumnOrder returns the column's non-archived tasks sorted by stored
// position. Callers hold the store mutex and the column lock.
func (s *Store) activeColumnOrder(boardID, columnID string) []*domain.Task {
	var order []*domain.Task
	for _, t := range s.tasks {
		if t.BoardID == boardID && t.ColumnID == columnID && !t.IsArchived {
			order = append(order, t)
		}
	}
	sortByPosition(order)
	return order
}

func sortByPosition(ts []*domain.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Position == ts[j].Position {
			return ts[i].CreatedAt.Before(ts[j].CreatedAt)
		}
		return ts[i].Position < ts[j].Position
	})
}

// renumber rewrites positions densely 0..n-1 in slice order and returns the
// tasks whose stored position actually moved. Renumbering an ordering that
// contains a gap (an archived task's vacated slot) heals it.
func renumber(order []*domain.Task) []*domain.Task {
	var changed []*domain.Task
	for i, t := range order {
		if t.Position != i {
			t.Position = i
			changed = append(changed, t)
		}
	}
	return changed
}

// ensureTask guarantees t is part of the change set even when renumbering
// left its position untouched.
func ensureTask(changed []*domain.Task, t *domain.Task) []*domain.Task {
	for _, c := range changed {
		if c.ID == t.ID {
			return changed
		}
	}
	return append(changed, t)
}
