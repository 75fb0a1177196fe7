package tasks

import (
	"context"
	"time"

	"taskboard-api/domain"
)

// AddWatcher subscribes (userID, kind) to the task. Watchers are unique by
// that pair; re-adding an existing watcher fails with ALREADY_WATCHING.
func (s *Store) AddWatcher(ctx context.Context, taskID, userID string, kind domain.ActorKind, actor domain.Actor) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.Errf(domain.CodeValidationFailed, "watcher user id is required")
	}
	if kind == "" {
		kind = domain.ActorKindStartup
	}
	return s.mutateGuarded(ctx, taskID, readGuard(actor), func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		if t.Watching(userID, kind) {
			return nil, domain.Errf(domain.CodeAlreadyWatching, "user %s already watches task %s", userID, taskID)
		}
		t.Watchers = append(t.Watchers, domain.Watcher{
			UserID:  userID,
			Kind:    kind,
			AddedAt: time.Now().UTC(),
		})
		env := s.record(t, domain.ActionWatcherAdded, actor, domain.WatcherPayload{UserID: userID, Kind: kind})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// RemoveWatcher unsubscribes (userID, kind). Removal is permitted to the
// watcher themselves, the task's creator, the board owner, or a super admin.
func (s *Store) RemoveWatcher(ctx context.Context, taskID, userID string, kind domain.ActorKind, actor domain.Actor) (*domain.Task, error) {
	if kind == "" {
		kind = domain.ActorKindStartup
	}
	guard := func(t *domain.Task, b *domain.Board) error {
		if actor.IsSuperAdmin() || actor.ID == userID || actor.ID == t.CreatedBy.ID || actor.ID == b.CreatedBy {
			return nil
		}
		return domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot remove watcher %s", actor.ID, userID)
	}
	return s.mutateGuarded(ctx, taskID, guard, func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		for i, w := range t.Watchers {
			if w.UserID == userID && w.Kind == kind {
				t.Watchers = append(t.Watchers[:i], t.Watchers[i+1:]...)
				env := s.record(t, domain.ActionWatcherRemoved, actor, domain.WatcherPayload{UserID: userID, Kind: kind})
				return []domain.ActivityEnvelope{env}, nil
			}
		}
		return nil, domain.Errf(domain.CodeWatcherNotFound, "user %s is not watching task %s", userID, taskID)
	})
}
