package models

import "time"

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// Priority is bounded to [MinPriority, MaxPriority].
type Priority int

const (
	MinPriority     Priority = 1
	MaxPriority     Priority = 5
	DefaultPriority Priority = MinPriority
)

func (p Priority) Valid() bool {
	return p >= MinPriority && p <= MaxPriority
}

type Task struct {
	ID          int64
	ParentID    *int64
	OwnerID     string
	Status      Status
	Priority    Priority
	Title       string
	Description *string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// SetStatus keeps CompletedAt in step with Status.
func (t *Task) SetStatus(status Status, now time.Time) {
	switch {
	case status == StatusDone && t.Status != StatusDone:
		t.CompletedAt = &now
	case status != StatusDone:
		t.CompletedAt = nil
	}
	t.Status = status
}

// TaskNode is a task together with its direct subtasks.
type TaskNode struct {
	*Task
	Subtasks []*TaskNode
}
