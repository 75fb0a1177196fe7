// Package access computes read/write capability for (actor, board, task)
// tuples. Functions are pure and fail closed: missing board or task data
// always yields deny.
package access

import "taskboard-api/domain"

// CanRead reports whether actorID may read the board and the tasks on it.
// Public boards are readable by anyone; otherwise the actor must be the
// board owner or a member.
func CanRead(b *domain.Board, actorID string) bool {
	if b == nil {
		return false
	}
	if b.Visibility == domain.VisibilityPublic {
		return true
	}
	if actorID == "" {
		return false
	}
	if actorID == b.CreatedBy {
		return true
	}
	_, ok := b.MemberRole(actorID)
	return ok
}

// CanWrite reports whether the actor may mutate the task. Writers are the
// board owner, members with an editing role, the task's assignee, and
// super admins.
func CanWrite(t *domain.Task, b *domain.Board, actor domain.Actor) bool {
	if t == nil || b == nil || actor.ID == "" {
		return false
	}
	if actor.IsSuperAdmin() {
		return true
	}
	if actor.ID == b.CreatedBy {
		return true
	}
	if role, ok := b.MemberRole(actor.ID); ok {
		if role == domain.RoleAdmin || role == domain.RoleMember {
			return true
		}
	}
	return t.AssigneeID != "" && actor.ID == t.AssigneeID
}

// CanManageBoard reports whether the actor may change board definitions:
// columns, membership, name, visibility.
func CanManageBoard(b *domain.Board, actor domain.Actor) bool {
	if b == nil || actor.ID == "" {
		return false
	}
	if actor.IsSuperAdmin() || actor.ID == b.CreatedBy {
		return true
	}
	role, ok := b.MemberRole(actor.ID)
	return ok && role == domain.RoleAdmin
}
