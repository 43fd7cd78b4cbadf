package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/server/middleware"
	"github.com/gosuda/taskline/internal/tasks"
)

// AccessService abstracts project access control for handler testing.
// *access.Service satisfies this interface.
type AccessService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, title, color string) (*domain.Project, error)
	AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
	ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	AddParticipant(ctx context.Context, projectID, callerID, participantID uuid.UUID) (*domain.Project, error)
	ProjectUsers(ctx context.Context, projectID, callerID uuid.UUID) ([]*domain.User, error)
}

// TaskService abstracts task operations for handler testing.
// *tasks.Service satisfies this interface.
type TaskService interface {
	AddTask(ctx context.Context, projectID, callerID uuid.UUID, spec tasks.TaskSpec) (*domain.Task, error)
	TasksForProject(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, callerID uuid.UUID, done bool, status string) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID, callerID uuid.UUID) error
	TransferTask(ctx context.Context, taskID, fromUserID, toUserID uuid.UUID) (*domain.Task, error)
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (user *domain.User, accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// callerID extracts the authenticated user from the request context.
func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error401Unauthorized("missing authentication")
	}
	return id, nil
}
