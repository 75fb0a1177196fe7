package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskboard-api/domain"
)

const (
	commentMinLen = 1
	commentMaxLen = 2000
)

// CommentInput describes a comment to add.
type CommentInput struct {
	Content    string   `json:"content"`
	IsInternal bool     `json:"isInternal,omitempty"`
	Mentions   []string `json:"mentions,omitempty"`
}

// AddComment appends a comment. Anyone who can read the board may comment.
// Mentions are deduplicated, the author is dropped from their own mentions,
// and every remaining mention is auto-subscribed as a watcher.
func (s *Store) AddComment(ctx context.Context, taskID string, in CommentInput, actor domain.Actor) (*domain.Task, error) {
	if len(in.Content) < commentMinLen || len(in.Content) > commentMaxLen {
		return nil, domain.Errf(domain.CodeValidationFailed, "comment content must be %d..%d characters", commentMinLen, commentMaxLen)
	}
	return s.mutateGuarded(ctx, taskID, readGuard(actor), func(t *domain.Task, _ *domain.Board) ([]domain.ActivityEnvelope, error) {
		now := time.Now().UTC()
		mentions := dedupeMentions(in.Mentions, actor.ID)
		c := domain.Comment{
			ID:         uuid.NewString(),
			Author:     actor.Ref(),
			Content:    in.Content,
			IsInternal: in.IsInternal,
			Mentions:   mentions,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		t.Comments = append(t.Comments, c)
		// Mentioned users start watching as part of the comment append;
		// mention-driven subscriptions default to the startup kind.
		for _, userID := range mentions {
			if !t.Watching(userID, domain.ActorKindStartup) {
				t.Watchers = append(t.Watchers, domain.Watcher{
					UserID:  userID,
					Kind:    domain.ActorKindStartup,
					AddedAt: now,
				})
			}
		}
		env := s.record(t, domain.ActionCommentAdded, actor, domain.CommentPayload{CommentID: c.ID, Mentions: mentions})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// EditComment rewrites a comment's content. Only the author, a super admin
// or the board owner may edit; the original activity entry stays untouched
// and the correction is recorded as comment_edited.
func (s *Store) EditComment(ctx context.Context, taskID, commentID, content string, actor domain.Actor) (*domain.Task, error) {
	if len(content) < commentMinLen || len(content) > commentMaxLen {
		return nil, domain.Errf(domain.CodeValidationFailed, "comment content must be %d..%d characters", commentMinLen, commentMaxLen)
	}
	return s.mutateGuarded(ctx, taskID, readGuard(actor), func(t *domain.Task, b *domain.Board) ([]domain.ActivityEnvelope, error) {
		c, ok := t.Comment(commentID)
		if !ok {
			return nil, domain.Errf(domain.CodeCommentNotFound, "comment %s not found on task %s", commentID, taskID)
		}
		if err := commentOwnerGuard(c, b, actor); err != nil {
			return nil, err
		}
		c.Content = content
		c.Edited = true
		c.UpdatedAt = time.Now().UTC()
		env := s.record(t, domain.ActionCommentEdited, actor, domain.CommentPayload{CommentID: commentID})
		return []domain.ActivityEnvelope{env}, nil
	})
}

// DeleteComment removes a comment from the task. The activity log keeps the
// full trail: deletion appends comment_deleted, earlier entries remain.
func (s *Store) DeleteComment(ctx context.Context, taskID, commentID string, actor domain.Actor) (*domain.Task, error) {
	return s.mutateGuarded(ctx, taskID, readGuard(actor), func(t *domain.Task, b *domain.Board) ([]domain.ActivityEnvelope, error) {
		for i := range t.Comments {
			if t.Comments[i].ID != commentID {
				continue
			}
			if err := commentOwnerGuard(&t.Comments[i], b, actor); err != nil {
				return nil, err
			}
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			env := s.record(t, domain.ActionCommentDeleted, actor, domain.CommentPayload{CommentID: commentID})
			return []domain.ActivityEnvelope{env}, nil
		}
		return nil, domain.Errf(domain.CodeCommentNotFound, "comment %s not found on task %s", commentID, taskID)
	})
}

func commentOwnerGuard(c *domain.Comment, b *domain.Board, actor domain.Actor) error {
	if actor.IsSuperAdmin() || actor.ID == c.Author.ID || actor.ID == b.CreatedBy {
		return nil
	}
	return domain.Errf(domain.CodeTaskAccessDenied, "actor %s cannot modify comment %s", actor.ID, c.ID)
}

func dedupeMentions(mentions []string, authorID string) []string {
	seen := make(map[string]bool, len(mentions))
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if m == "" || m == authorID || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
