// Package tasks implements the task lifecycle within an authorized
// project and the ownership-transfer protocol.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/notify"
)

// OwnerPolicy decides who owns a freshly added task.
type OwnerPolicy string

const (
	// OwnerPolicyCaller assigns the new task to whoever added it.
	OwnerPolicyCaller OwnerPolicy = "assign-caller"
	// OwnerPolicyProjectOwner assigns the new task to the project owner
	// regardless of who added it.
	OwnerPolicyProjectOwner OwnerPolicy = "assign-project-owner"
)

// StatusPolicy decides how an unrecognized status token is treated on update.
type StatusPolicy string

const (
	// StatusPolicyIgnoreUnknown silently drops unrecognized tokens and
	// leaves the status unchanged.
	StatusPolicyIgnoreUnknown StatusPolicy = "ignore-unknown"
	// StatusPolicyStrict rejects unrecognized tokens with ErrValidation.
	StatusPolicyStrict StatusPolicy = "strict"
)

// Scope selects which tasks of a project a listing returns.
type Scope string

const (
	// ScopeProject returns every task in the project.
	ScopeProject Scope = "project"
	// ScopeOwned returns only tasks owned by the caller.
	ScopeOwned Scope = "owned"
)

// Config holds the behavioral policies of the engine.
type Config struct {
	OwnerPolicy  OwnerPolicy
	StatusPolicy StatusPolicy
}

// DefaultConfig matches the current upstream behavior: the adding caller
// owns the new task, and unknown status tokens are ignored.
func DefaultConfig() Config {
	return Config{
		OwnerPolicy:  OwnerPolicyCaller,
		StatusPolicy: StatusPolicyIgnoreUnknown,
	}
}

// AccessChecker is the visibility primitive from the access service.
type AccessChecker interface {
	AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
}

// TaskSpec carries the caller-supplied fields for a new task.
type TaskSpec struct {
	Title       string
	Description string
	Done        bool
	Status      string
	Priority    string
	Term        *time.Time
}

// Service owns task records, the status/priority lifecycle and the
// ownership-transfer protocol.
type Service struct {
	access   AccessChecker
	tasks    domain.TaskRepository
	projects domain.ProjectRepository
	users    domain.UserRepository
	notifier notify.Dispatcher
	cfg      Config
}

// NewService creates the task ownership engine.
func NewService(access AccessChecker, tasks domain.TaskRepository, projects domain.ProjectRepository, users domain.UserRepository, notifier notify.Dispatcher, cfg Config) *Service {
	if cfg.OwnerPolicy == "" {
		cfg.OwnerPolicy = OwnerPolicyCaller
	}
	if cfg.StatusPolicy == "" {
		cfg.StatusPolicy = StatusPolicyIgnoreUnknown
	}
	return &Service{
		access:   access,
		tasks:    tasks,
		projects: projects,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
	}
}

// AddTask creates a task in the project after the caller's visibility is
// verified. Creation-time status and priority tokens are validated
// strictly; ownership of the new task follows the configured OwnerPolicy.
func (s *Service) AddTask(ctx context.Context, projectID, callerID uuid.UUID, spec TaskSpec) (*domain.Task, error) {
	p, err := s.access.AuthorizedProject(ctx, projectID, callerID)
	if err != nil {
		return nil, fmt.Errorf("tasks.AddTask: %w", err)
	}

	t, err := domain.NewTask(p.ID, spec.Title)
	if err != nil {
		return nil, fmt.Errorf("tasks.AddTask: %w: %w", domain.ErrValidation, err)
	}
	t.Description = spec.Description
	t.Done = spec.Done
	t.Term = spec.Term

	if spec.Status != "" {
		status, ok := domain.ParseTaskStatus(spec.Status)
		if !ok {
			return nil, fmt.Errorf("tasks.AddTask: unknown status %q: %w", spec.Status, domain.ErrValidation)
		}
		t.Status = status
	}
	if spec.Priority != "" {
		priority, ok := domain.ParseTaskPriority(spec.Priority)
		if !ok {
			return nil, fmt.Errorf("tasks.AddTask: unknown priority %q: %w", spec.Priority, domain.ErrValidation)
		}
		t.Priority = priority
	}

	ownerID := callerID
	if s.cfg.OwnerPolicy == OwnerPolicyProjectOwner {
		ownerID = p.OwnerID
	}
	t.OwnerID = &ownerID

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("tasks.AddTask: %w", err)
	}

	s.notifier.Notify(ctx, ownerID, taskAddedMessage(p.Title, t))

	return t, nil
}

// TasksForProject lists a project's tasks after the caller's visibility
// is verified. The scope is an explicit choice: project-wide or only the
// caller's own tasks.
func (s *Service) TasksForProject(ctx context.Context, projectID, callerID uuid.UUID, scope Scope) ([]*domain.Task, error) {
	if _, err := s.access.AuthorizedProject(ctx, projectID, callerID); err != nil {
		return nil, fmt.Errorf("tasks.TasksForProject: %w", err)
	}

	var (
		list []*domain.Task
		err  error
	)
	switch scope {
	case ScopeOwned:
		list, err = s.tasks.ListByProjectAndOwner(ctx, projectID, callerID)
	default:
		list, err = s.tasks.ListByProject(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("tasks.TasksForProject: %w", err)
	}

	return list, nil
}

// UpdateTaskStatus sets the done flag and, when the status token is one of
// the three valid values, the status. Under the default policy an invalid
// token leaves the status untouched; under StatusPolicyStrict it is
// rejected. Only the task's current owner may update.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID, callerID uuid.UUID, done bool, status string) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("tasks.UpdateTaskStatus: %w", err)
	}
	if err := ensureOwner(t, callerID); err != nil {
		return nil, fmt.Errorf("tasks.UpdateTaskStatus: %w", err)
	}

	var statusPtr *domain.TaskStatus
	if status != "" {
		parsed, ok := domain.ParseTaskStatus(status)
		switch {
		case ok:
			statusPtr = &parsed
		case s.cfg.StatusPolicy == StatusPolicyStrict:
			return nil, fmt.Errorf("tasks.UpdateTaskStatus: unknown status %q: %w", status, domain.ErrValidation)
		default:
			log.Debug().Str("status", status).Stringer("task_id", taskID).Msg("tasks: ignoring unknown status token")
		}
	}

	updated, err := s.tasks.UpdateLifecycle(ctx, taskID, callerID, done, statusPtr)
	if err != nil {
		return nil, fmt.Errorf("tasks.UpdateTaskStatus: %w", err)
	}

	s.notifier.Notify(ctx, callerID, statusChangedMessage(s.projectTitle(ctx, t.ProjectID), updated))

	return updated, nil
}

// DeleteTask permanently removes the task. Only the current owner may
// delete; the notification carries a snapshot of the task taken before
// removal since there is nothing left to read afterwards.
func (s *Service) DeleteTask(ctx context.Context, taskID, callerID uuid.UUID) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("tasks.DeleteTask: %w", err)
	}
	if err := ensureOwner(t, callerID); err != nil {
		return fmt.Errorf("tasks.DeleteTask: %w", err)
	}

	snapshot := *t

	if err := s.tasks.DeleteOwned(ctx, taskID, callerID); err != nil {
		return fmt.Errorf("tasks.DeleteTask: %w", err)
	}

	s.notifier.Notify(ctx, callerID, taskDeletedMessage(s.projectTitle(ctx, snapshot.ProjectID), &snapshot))

	return nil
}

// TransferTask moves ownership of a task from its current owner to
// another member of the same project:
//
//  1. the task must exist,
//  2. the caller must be its current owner,
//  3. the recipient must be the project's owner or a current participant
//     (membership is checked now, not re-validated later),
//  4. the recipient must resolve to a known user.
//
// The reassignment itself is an owner-guarded compare-and-swap, so a
// concurrent transfer or delete cannot be overwritten.
func (s *Service) TransferTask(ctx context.Context, taskID, fromUserID, toUserID uuid.UUID) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("tasks.TransferTask: %w", err)
	}
	if err := ensureOwner(t, fromUserID); err != nil {
		return nil, fmt.Errorf("tasks.TransferTask: %w", err)
	}

	p, err := s.projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("tasks.TransferTask: project: %w", err)
	}
	if !p.HasMember(toUserID) {
		return nil, fmt.Errorf("tasks.TransferTask: recipient %s is not a member of project %s: %w", toUserID, p.ID, domain.ErrForbidden)
	}

	recipient, err := s.users.GetByID(ctx, toUserID)
	if err != nil {
		return nil, fmt.Errorf("tasks.TransferTask: recipient: %w", err)
	}

	updated, err := s.tasks.TransferOwner(ctx, taskID, fromUserID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("tasks.TransferTask: %w", err)
	}

	s.notifier.Notify(ctx, recipient.ID, taskTransferredMessage(p.Title, updated))

	return updated, nil
}

// ensureOwner verifies the caller currently owns the task. An ownerless
// task has no valid caller, so it fails Forbidden as well.
func ensureOwner(t *domain.Task, callerID uuid.UUID) error {
	if t.OwnerID == nil {
		return fmt.Errorf("task %s has no owner: %w", t.ID, domain.ErrForbidden)
	}
	if *t.OwnerID != callerID {
		return fmt.Errorf("user %s is not the owner of task %s: %w", callerID, t.ID, domain.ErrForbidden)
	}
	return nil
}

// projectTitle resolves a project title for notification text. Best
// effort: the notification is already best-effort, so a failed lookup
// just degrades the message.
func (s *Service) projectTitle(ctx context.Context, projectID uuid.UUID) string {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		log.Debug().Err(err).Stringer("project_id", projectID).Msg("tasks: project title lookup failed for notification")
		return ""
	}
	return p.Title
}
