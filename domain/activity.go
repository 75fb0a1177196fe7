package domain

import "time"

// Action identifies the kind of state change an activity entry records.
type Action string

const (
	ActionCreated           Action = "created"
	ActionUpdated           Action = "updated"
	ActionMoved             Action = "moved"
	ActionAssigned          Action = "assigned"
	ActionStatusChanged     Action = "status_changed"
	ActionChecklistUpdated  Action = "checklist_updated"
	ActionArchived          Action = "archived"
	ActionDependencyAdded   Action = "dependency_added"
	ActionDependencyRemoved Action = "dependency_removed"
	ActionCommentAdded      Action = "comment_added"
	ActionCommentEdited     Action = "comment_edited"
	ActionCommentDeleted    Action = "comment_deleted"
	ActionSubtaskAdded      Action = "subtask_added"
	ActionSubtaskUpdated    Action = "subtask_updated"
	ActionSubtaskDeleted    Action = "subtask_deleted"
	ActionTimeLogged        Action = "time_logged"
	ActionTimeEntryDeleted  Action = "time_entry_deleted"
	ActionWatcherAdded      Action = "watcher_added"
	ActionWatcherRemoved    Action = "watcher_removed"
)

// Placement is a (column, position) slot used in move payloads.
type Placement struct {
	ColumnID string `json:"columnId"`
	Position int    `json:"position"`
}

// Typed activity payloads, one per action kind. The payload set is closed:
// history never carries freeform change maps.
type (
	CreatedPayload struct {
		Placement Placement `json:"placement"`
	}
	UpdatedPayload struct {
		Fields []string `json:"fields"`
	}
	MovedPayload struct {
		From Placement `json:"from"`
		To   Placement `json:"to"`
	}
	AssignedPayload struct {
		From string `json:"from,omitempty"`
		To   string `json:"to,omitempty"`
	}
	StatusPayload struct {
		From Status `json:"from"`
		To   Status `json:"to"`
	}
	ChecklistPayload struct {
		Completed  int `json:"completed"`
		Total      int `json:"total"`
		Percentage int `json:"percentage"`
	}
	ArchivedPayload struct {
		Placement Placement `json:"placement"`
	}
	DependencyPayload struct {
		TaskID string         `json:"taskId"`
		Kind   DependencyKind `json:"kind"`
	}
	CommentPayload struct {
		CommentID string   `json:"commentId"`
		Mentions  []string `json:"mentions,omitempty"`
	}
	SubtaskPayload struct {
		SubtaskID string        `json:"subtaskId"`
		Status    SubtaskStatus `json:"status,omitempty"`
	}
	TimeEntryPayload struct {
		EntryID    string  `json:"entryId"`
		Hours      float64 `json:"hours"`
		TotalHours float64 `json:"totalHours"`
	}
	WatcherPayload struct {
		UserID string    `json:"userId"`
		Kind   ActorKind `json:"kind"`
	}
)

// ActivityEntry is one immutable record in a task's append-only history.
// Entries are ordered by (At, Seq) and never edited or deleted; corrections
// are recorded as new entries.
type ActivityEntry struct {
	ID      string    `json:"id"`
	TaskID  string    `json:"taskId"`
	Action  Action    `json:"action"`
	Actor   ActorRef  `json:"actor"`
	At      time.Time `json:"at"`
	Seq     int64     `json:"seq"`
	Payload any       `json:"payload,omitempty"`
}

// ActivityEnvelope wraps an entry with its board for queue consumers.
type ActivityEnvelope struct {
	BoardID string        `json:"boardId"`
	Entry   ActivityEntry `json:"entry"`
}
