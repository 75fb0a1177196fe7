package domain

import (
	"math"
	"time"
)

// Status is a task's lifecycle state. Column placement and status are
// independent; only `done` carries extra bookkeeping.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ValidStatus reports whether s is an accepted task status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriority reports whether p is an accepted task priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// DependencyKind types an edge between two tasks.
type DependencyKind string

const (
	DependencyBlocks    DependencyKind = "blocks"
	DependencyBlockedBy DependencyKind = "blocked_by"
	DependencyRelatesTo DependencyKind = "relates_to"
	DependencyDuplicate DependencyKind = "duplicates"
)

// ValidDependencyKind reports whether k is an accepted dependency edge kind.
func ValidDependencyKind(k DependencyKind) bool {
	switch k {
	case DependencyBlocks, DependencyBlockedBy, DependencyRelatesTo, DependencyDuplicate:
		return true
	}
	return false
}

// Dependency is a typed edge to another task.
type Dependency struct {
	TaskID string         `json:"taskId"`
	Kind   DependencyKind `json:"kind"`
}

// ChecklistItem is one line of a task's progress checklist.
type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Progress tracks completion. Percentage is derived from the checklist
// whenever the checklist is non-empty; a manually set percentage is only
// honored while the checklist is empty.
type Progress struct {
	Percentage int             `json:"percentage"`
	Checklist  []ChecklistItem `json:"checklistItems,omitempty"`
}

// Comment is an embedded discussion entry on a task.
type Comment struct {
	ID         string    `json:"id"`
	Author     ActorRef  `json:"author"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal,omitempty"`
	Mentions   []string  `json:"mentions,omitempty"`
	Edited     bool      `json:"edited,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SubtaskStatus has only two states; completion mirrors the parent task's
// completedAt toggle semantics.
type SubtaskStatus string

const (
	SubtaskPending   SubtaskStatus = "pending"
	SubtaskCompleted SubtaskStatus = "completed"
)

// Subtask is an embedded child work item.
type Subtask struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	AssigneeID  string        `json:"assigneeId,omitempty"`
	Status      SubtaskStatus `json:"status"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	CreatedBy   ActorRef      `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// TimeEntry is one logged unit of work against a task.
type TimeEntry struct {
	ID          string    `json:"id"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	LoggedBy    ActorRef  `json:"loggedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Attachment references a file held by the external blob store.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	URL        string    `json:"url"`
	UploadedBy ActorRef  `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Watcher subscribes an identity to a task's changes. Watchers are unique by
// (UserID, Kind).
type Watcher struct {
	UserID  string    `json:"userId"`
	Kind    ActorKind `json:"kind"`
	AddedAt time.Time `json:"addedAt"`
}

// Task is the aggregate root. Embedded collections are owned by value and
// mutated only through the task store's managers so every change is
// invariant-checked and logged.
type Task struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Type           string          `json:"taskType,omitempty"`
	Status         Status          `json:"status"`
	Priority       Priority        `json:"priority"`
	AssigneeID     string          `json:"assigneeId,omitempty"`
	CreatedBy      ActorRef        `json:"createdBy"`
	BoardID        string          `json:"boardId"`
	ColumnID       string          `json:"columnId"`
	SprintID       string          `json:"sprintId,omitempty"`
	Position       int             `json:"position"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	EstimatedHours float64         `json:"estimatedHours,omitempty"`
	ActualHours    float64         `json:"actualHours"`
	Progress       Progress        `json:"progress"`
	Tags           []string        `json:"tags,omitempty"`
	Dependencies   []Dependency    `json:"dependencies,omitempty"`
	Comments       []Comment       `json:"comments,omitempty"`
	Subtasks       []Subtask       `json:"subtasks,omitempty"`
	TimeEntries    []TimeEntry     `json:"timeEntries,omitempty"`
	Attachments    []Attachment    `json:"attachments,omitempty"`
	Watchers       []Watcher       `json:"watchers,omitempty"`
	Activity       []ActivityEntry `json:"activity,omitempty"`
	IsArchived     bool            `json:"isArchived,omitempty"`
	ArchivedAt     *time.Time      `json:"archivedAt,omitempty"`
	ArchivedBy     string          `json:"archivedBy,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	CompletedBy    string          `json:"completedBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsOverdue reports whether the task has an unmet due date in the past.
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil || t.Status == StatusDone || t.IsArchived {
		return false
	}
	return t.DueDate.Before(time.Now())
}

// DaysUntilDue returns whole days until the due date, negative when overdue.
// The second return is false when no due date is set.
func (t *Task) DaysUntilDue() (int, bool) {
	if t.DueDate == nil {
		return 0, false
	}
	return int(math.Ceil(time.Until(*t.DueDate).Hours() / 24)), true
}

// ChecklistCompletion returns the rounded completion percentage of the
// checklist, or 0 when the checklist is empty.
func (t *Task) ChecklistCompletion() int {
	total := len(t.Progress.Checklist)
	if total == 0 {
		return 0
	}
	done := 0
	for _, item := range t.Progress.Checklist {
		if item.Done {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// RecomputeActualHours replaces ActualHours with the sum over the current
// time entries. It is never adjusted incrementally.
func (t *Task) RecomputeActualHours() {
	var total float64
	for _, e := range t.TimeEntries {
		total += e.Hours
	}
	t.ActualHours = total
}

// Watching reports whether (userID, kind) already watches the task.
func (t *Task) Watching(userID string, kind ActorKind) bool {
	for _, w := range t.Watchers {
		if w.UserID == userID && w.Kind == kind {
			return true
		}
	}
	return false
}

// Comment returns the embedded comment with the given id, if present.
func (t *Task) Comment(id string) (*Comment, bool) {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return &t.Comments[i], true
		}
	}
	return nil, false
}

// Subtask returns the embedded subtask with the given id, if present.
func (t *Task) Subtask(id string) (*Subtask, bool) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy safe to hand to callers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.DueDate = cloneTime(t.DueDate)
	cp.ArchivedAt = cloneTime(t.ArchivedAt)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.Progress.Checklist = append([]ChecklistItem(nil), t.Progress.Checklist...)
	cp.Tags = append([]string(nil), t.Tags...)
	cp.Dependencies = append([]Dependency(nil), t.Dependencies...)
	cp.Comments = make([]Comment, len(t.Comments))
	for i, c := range t.Comments {
		c.Mentions = append([]string(nil), c.Mentions...)
		cp.Comments[i] = c
	}
	cp.Subtasks = make([]Subtask, len(t.Subtasks))
	for i, s := range t.Subtasks {
		s.DueDate = cloneTime(s.DueDate)
		s.CompletedAt = cloneTime(s.CompletedAt)
		cp.Subtasks[i] = s
	}
	cp.TimeEntries = append([]TimeEntry(nil), t.TimeEntries...)
	cp.Attachments = append([]Attachment(nil), t.Attachments...)
	cp.Watchers = append([]Watcher(nil), t.Watchers...)
	cp.Activity = append([]ActivityEntry(nil), t.Activity...)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
