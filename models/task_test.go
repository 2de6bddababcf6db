package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncCompletion(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	task := Task{Status: StatusCompleted}
	task.SyncCompletion(t1)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(t1) {
		t.Fatalf("completed_at = %v, want %v", task.CompletedAt, t1)
	}

	task.SyncCompletion(t2)
	if !task.CompletedAt.Equal(t1) {
		t.Fatalf("completed_at moved to %v on second sync", task.CompletedAt)
	}

	task.Status = StatusPending
	task.SyncCompletion(t2)
	if task.CompletedAt != nil {
		t.Fatalf("completed_at should be cleared, got %v", task.CompletedAt)
	}

	stale := t1
	task = Task{Status: StatusInProgress, CompletedAt: &stale}
	task.SyncCompletion(t2)
	if task.CompletedAt != nil {
		t.Fatalf("non-completed task kept completed_at")
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: StatusPending}, false},
		{"past pending", Task{Status: StatusPending, DueDate: &past}, true},
		{"past in progress", Task{Status: StatusInProgress, DueDate: &past}, true},
		{"past completed", Task{Status: StatusCompleted, DueDate: &past}, false},
		{"future pending", Task{Status: StatusPending, DueDate: &future}, false},
		{"due exactly now", Task{Status: StatusPending, DueDate: &now}, false},
	}
	for _, tc := range cases {
		if got := tc.task.IsOverdue(now); got != tc.want {
			t.Errorf("%s: IsOverdue = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	if StatusInProgress.Label() != "In Progress" {
		t.Fatalf("status label = %q", StatusInProgress.Label())
	}
	if PriorityHigh.Label() != "High" || PriorityHigh.Key() != "3" {
		t.Fatalf("priority label/key = %q/%q", PriorityHigh.Label(), PriorityHigh.Key())
	}
	if TaskStatus("archived").Valid() || TaskPriority(4).Valid() {
		t.Fatalf("unexpected valid enum values")
	}
}

func TestTaskInputNullable(t *testing.T) {
	var in TaskInput
	if err := json.Unmarshal([]byte(`{"title":"x","category":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.Category.Set || in.Category.Value != nil {
		t.Fatalf("explicit null category not recorded: %+v", in.Category)
	}
	if in.DueDate.Set {
		t.Fatalf("omitted due_date marked as set")
	}

	in = TaskInput{}
	if err := json.Unmarshal([]byte(`{"category":7,"due_date":"2026-03-01T10:00:00Z"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.Category.Value == nil || *in.Category.Value != 7 {
		t.Fatalf("category = %+v", in.Category)
	}
	if in.DueDate.Value == nil || in.DueDate.Value.Hour() != 10 {
		t.Fatalf("due_date = %+v", in.DueDate)
	}
}

func TestToResponseDerivedFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)
	catID := uint(4)
	task := Task{
		ID:         1,
		Title:      "Ship release",
		Status:     StatusPending,
		Priority:   PriorityHigh,
		CategoryID: &catID,
		Category:   &Category{ID: catID, Name: "Work"},
		DueDate:    &due,
	}
	resp := task.ToResponse("alice", now)
	if resp.User != "alice" || resp.StatusDisplay != "Pending" || resp.PriorityDisplay != "High" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CategoryName == nil || *resp.CategoryName != "Work" {
		t.Fatalf("category_name = %v", resp.CategoryName)
	}
	if !resp.IsOverdue {
		t.Fatalf("expected overdue")
	}
}
