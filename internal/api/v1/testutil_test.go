package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/server/middleware"
	"github.com/gosuda/taskline/internal/tasks"
)

// ---------------------------------------------------------------------------
// Context helper: inject the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock AccessService
// ---------------------------------------------------------------------------

type mockAccessService struct {
	createProjectFunc     func(ctx context.Context, ownerID uuid.UUID, title, color string) (*domain.Project, error)
	authorizedProjectFunc func(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
	projectsForUserFunc   func(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	addParticipantFunc    func(ctx context.Context, projectID, callerID, participantID uuid.UUID) (*domain.Project, error)
	projectUsersFunc      func(ctx context.Context, projectID, callerID uuid.UUID) ([]*domain.User, error)
}

func (m *mockAccessService) CreateProject(ctx context.Context, ownerID uuid.UUID, title, color string) (*domain.Project, error) {
	return m.createProjectFunc(ctx, ownerID, title, color)
}

func (m *mockAccessService) AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	return m.authorizedProjectFunc(ctx, projectID, userID)
}

func (m *mockAccessService) ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return m.projectsForUserFunc(ctx, userID)
}

func (m *mockAccessService) AddParticipant(ctx context.Context, projectID, callerID, participantID uuid.UUID) (*domain.Project, error) {
	return m.addParticipantFunc(ctx, projectID, callerID, participantID)
}

func (m *mockAccessService) ProjectUsers(ctx context.Context, projectID, callerID uuid.UUID) ([]*domain.User, error) {
	return m.projectUsersFunc(ctx, projectID, callerID)
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	addTaskFunc          func(ctx context.Context, projectID, callerID uuid.UUID, spec tasks.TaskSpec) (*domain.Task, error)
	tasksForProjectFunc  func(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error)
	updateTaskStatusFunc func(ctx context.Context, taskID, callerID uuid.UUID, done bool, status string) (*domain.Task, error)
	deleteTaskFunc       func(ctx context.Context, taskID, callerID uuid.UUID) error
	transferTaskFunc     func(ctx context.Context, taskID, fromUserID, toUserID uuid.UUID) (*domain.Task, error)
}

func (m *mockTaskService) AddTask(ctx context.Context, projectID, callerID uuid.UUID, spec tasks.TaskSpec) (*domain.Task, error) {
	return m.addTaskFunc(ctx, projectID, callerID, spec)
}

func (m *mockTaskService) TasksForProject(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error) {
	return m.tasksForProjectFunc(ctx, projectID, callerID, scope)
}

func (m *mockTaskService) UpdateTaskStatus(ctx context.Context, taskID, callerID uuid.UUID, done bool, status string) (*domain.Task, error) {
	return m.updateTaskStatusFunc(ctx, taskID, callerID, done, status)
}

func (m *mockTaskService) DeleteTask(ctx context.Context, taskID, callerID uuid.UUID) error {
	return m.deleteTaskFunc(ctx, taskID, callerID)
}

func (m *mockTaskService) TransferTask(ctx context.Context, taskID, fromUserID, toUserID uuid.UUID) (*domain.Task, error) {
	return m.transferTaskFunc(ctx, taskID, fromUserID, toUserID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, username, password string) (*domain.User, error)
	loginFunc        func(ctx context.Context, username, password string) (*domain.User, string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return m.registerFunc(ctx, username, password)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*domain.User, string, string, error) {
	return m.loginFunc(ctx, username, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}
