package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalIncludesZeroPosition(t *testing.T) {
	task := Task{ID: "t1", Title: "Title", BoardID: "b1", ColumnID: "c1", Position: 0}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if !strings.Contains(string(payload), "\"position\":0") {
		t.Fatalf("expected position field to be present, got %s", payload)
	}
}

func TestChecklistCompletion(t *testing.T) {
	task := Task{}
	if got := task.ChecklistCompletion(); got != 0 {
		t.Fatalf("empty checklist completion = %d, want 0", got)
	}

	task.Progress.Checklist = []ChecklistItem{
		{ID: "1", Text: "a", Done: true},
		{ID: "2", Text: "b", Done: true},
		{ID: "3", Text: "c", Done: false},
	}
	if got := task.ChecklistCompletion(); got != 67 {
		t.Fatalf("completion = %d, want 67", got)
	}
}

func TestRecomputeActualHours(t *testing.T) {
	task := Task{ActualHours: 99}
	task.TimeEntries = []TimeEntry{{Hours: 3}, {Hours: 5}}
	task.RecomputeActualHours()
	if task.ActualHours != 8 {
		t.Fatalf("actual hours = %v, want 8", task.ActualHours)
	}

	task.TimeEntries = nil
	task.RecomputeActualHours()
	if task.ActualHours != 0 {
		t.Fatalf("actual hours after clearing = %v, want 0", task.ActualHours)
	}
}

func TestIsOverdue(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	task := Task{DueDate: &past, Status: StatusInProgress}
	if !task.IsOverdue() {
		t.Fatal("expected overdue task")
	}

	task.Status = StatusDone
	if task.IsOverdue() {
		t.Fatal("done tasks are never overdue")
	}

	task.Status = StatusInProgress
	task.IsArchived = true
	if task.IsOverdue() {
		t.Fatal("archived tasks are never overdue")
	}

	if (&Task{}).IsOverdue() {
		t.Fatal("task without due date is never overdue")
	}
}

func TestDaysUntilDue(t *testing.T) {
	if _, ok := (&Task{}).DaysUntilDue(); ok {
		t.Fatal("expected no due days without a due date")
	}
	due := time.Now().Add(72*time.Hour + time.Minute)
	task := Task{DueDate: &due}
	days, ok := task.DaysUntilDue()
	if !ok || days != 4 {
		t.Fatalf("days until due = %d (%v), want 4", days, ok)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{
		ID:       "t1",
		Watchers: []Watcher{{UserID: "u1", Kind: ActorKindStartup, AddedAt: now}},
		Comments: []Comment{{ID: "c1", Content: "hi", Mentions: []string{"u2"}}},
		Progress: Progress{Checklist: []ChecklistItem{{ID: "i1", Text: "x"}}},
	}

	cp := task.Clone()
	cp.Watchers[0].UserID = "changed"
	cp.Comments[0].Mentions[0] = "changed"
	cp.Progress.Checklist[0].Done = true

	if task.Watchers[0].UserID != "u1" {
		t.Fatal("clone shares watcher slice with original")
	}
	if task.Comments[0].Mentions[0] != "u2" {
		t.Fatal("clone shares mention slice with original")
	}
	if task.Progress.Checklist[0].Done {
		t.Fatal("clone shares checklist slice with original")
	}
}

func TestCodeOf(t *testing.T) {
	err := Errf(CodeTaskNotFound, "task %s not found", "t1")
	if CodeOf(err) != CodeTaskNotFound {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
	if !IsCode(err, CodeTaskNotFound) {
		t.Fatal("IsCode mismatch")
	}
	if IsCode(nil, CodeTaskNotFound) {
		t.Fatal("nil error should carry no code")
	}
}
