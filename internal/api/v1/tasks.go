package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/tasks"
)

type CreateTaskInput struct {
	Body struct {
		ProjectID   uuid.UUID  `json:"project_id" doc:"Project ID"`
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string     `json:"description,omitempty" doc:"Task description"`
		Done        bool       `json:"done,omitempty" doc:"Completion flag"`
		Status      string     `json:"status,omitempty" doc:"Status token (todo, in-progress, done)"`
		Priority    string     `json:"priority,omitempty" doc:"Priority token (very-low, low, medium, high, urgent)"`
		Term        *time.Time `json:"term,omitempty" doc:"Due date"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
	Scope     string    `query:"scope" enum:"project,owned" doc:"project = all tasks, owned = caller's tasks only"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type UpdateTaskStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Done   bool   `json:"done" doc:"Completion flag"`
		Status string `json:"status,omitempty" doc:"Status token, empty leaves status unchanged"`
	}
}

type UpdateTaskStatusOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type TransferTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		ToUserID uuid.UUID `json:"to_user_id" doc:"New owner"`
	}
}

type TransferTaskOutput struct {
	Body *domain.Task
}

func RegisterTaskRoutes(api huma.API, taskSvc TaskService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		t, err := taskSvc.AddTask(ctx, input.Body.ProjectID, caller, tasks.TaskSpec{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Done:        input.Body.Done,
			Status:      input.Body.Status,
			Priority:    input.Body.Priority,
			Term:        input.Body.Term,
		})
		if err != nil {
			return nil, domainError(err, "task")
		}

		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks for a project",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		scope := tasks.ScopeProject
		if input.Scope == string(tasks.ScopeOwned) {
			scope = tasks.ScopeOwned
		}

		list, err := taskSvc.TasksForProject(ctx, input.ProjectID, caller, scope)
		if err != nil {
			return nil, domainError(err, "project")
		}

		return &ListTasksOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/status",
		Summary:     "Update task completion and status",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskStatusInput) (*UpdateTaskStatusOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		t, err := taskSvc.UpdateTaskStatus(ctx, input.ID, caller, input.Body.Done, input.Body.Status)
		if err != nil {
			return nil, domainError(err, "task")
		}

		return &UpdateTaskStatusOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		if err := taskSvc.DeleteTask(ctx, input.ID, caller); err != nil {
			return nil, domainError(err, "task")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transfer-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/transfer",
		Summary:     "Hand a task off to another project member",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TransferTaskInput) (*TransferTaskOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		t, err := taskSvc.TransferTask(ctx, input.ID, caller, input.Body.ToUserID)
		if err != nil {
			return nil, domainError(err, "task")
		}

		return &TransferTaskOutput{Body: t}, nil
	})
}
