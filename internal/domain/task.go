package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// ParseTaskStatus validates a status token. Any status may follow any other;
// there is no transition graph.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// Label returns the human-readable form used in notifications.
func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusTodo:
		return "Waiting"
	case TaskStatusInProgress:
		return "In progress"
	case TaskStatusDone:
		return "Done"
	default:
		return string(s)
	}
}

type TaskPriority string

const (
	TaskPriorityVeryLow TaskPriority = "very-low"
	TaskPriorityLow     TaskPriority = "low"
	TaskPriorityMedium  TaskPriority = "medium"
	TaskPriorityHigh    TaskPriority = "high"
	TaskPriorityUrgent  TaskPriority = "urgent"
)

// ParseTaskPriority validates a priority token.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case TaskPriorityVeryLow, TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return TaskPriority(s), true
	default:
		return "", false
	}
}

type Task struct {
	ID        uuid.UUID
	ProjectID uuid.UUID // immutable; tasks are never reparented

	// OwnerID is the user currently responsible for the task. Nullable:
	// a task may be ownerless in early lifecycle states. Membership is
	// checked when ownership is assigned, not re-validated afterwards.
	OwnerID *uuid.UUID

	Title       string
	Description string

	// Done and Status are independent representations of lifecycle
	// progress. Neither is derived from the other.
	Done   bool
	Status TaskStatus

	Priority  TaskPriority
	Term      *time.Time // optional deadline
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask creates a Task with validated required fields and defaults.
func NewTask(projectID uuid.UUID, title string) (*Task, error) {
	if projectID == uuid.Nil {
		return nil, errors.New("task: project ID is required")
	}
	if title == "" {
		return nil, errors.New("task: title is required")
	}
	now := time.Now()
	return &Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Status:    TaskStatusTodo,
		Priority:  TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// TaskRepository persists tasks. The guarded mutations (UpdateLifecycle,
// TransferOwner, DeleteOwned) compare-and-swap on the owner column in a
// single statement so update, delete and transfer on one task are
// linearizable with respect to each other. A failed guard is classified:
// ErrNotFound when the row is gone, ErrForbidden when it exists under a
// different owner.
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	ListByProjectAndOwner(ctx context.Context, projectID, ownerID uuid.UUID) ([]*Task, error)
	UpdateLifecycle(ctx context.Context, id, expectedOwner uuid.UUID, done bool, status *TaskStatus) (*Task, error)
	TransferOwner(ctx context.Context, id, fromOwner, toOwner uuid.UUID) (*Task, error)
	DeleteOwned(ctx context.Context, id, expectedOwner uuid.UUID) error
}
