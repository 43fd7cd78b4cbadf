package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/taskline/internal/domain"
)

type CreateProjectInput struct {
	Body struct {
		Title string `json:"title" minLength:"1" maxLength:"255" doc:"Project title"`
		Color string `json:"color,omitempty" maxLength:"32" doc:"Display color, defaults when empty"`
	}
}

type CreateProjectOutput struct {
	Body *domain.Project
}

type ListProjectsOutput struct {
	Body []*domain.Project
}

type GetProjectInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type GetProjectOutput struct {
	Body *domain.Project
}

type ListProjectUsersInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ListProjectUsersOutput struct {
	Body []*domain.User
}

type AddParticipantInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		UserID uuid.UUID `json:"user_id" doc:"User to invite"`
	}
}

type AddParticipantOutput struct {
	Body *domain.Project
}

func RegisterProjectRoutes(api huma.API, accessSvc AccessService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-project",
		Method:      http.MethodPost,
		Path:        "/projects",
		Summary:     "Create a new project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *CreateProjectInput) (*CreateProjectOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		p, err := accessSvc.CreateProject(ctx, caller, input.Body.Title, input.Body.Color)
		if err != nil {
			return nil, domainError(err, "project")
		}

		return &CreateProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects visible to the caller",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		projects, err := accessSvc.ProjectsForUser(ctx, caller)
		if err != nil {
			return nil, domainError(err, "project")
		}

		return &ListProjectsOutput{Body: projects}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project with its tasks",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *GetProjectInput) (*GetProjectOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		p, err := accessSvc.AuthorizedProject(ctx, input.ID, caller)
		if err != nil {
			return nil, domainError(err, "project")
		}

		return &GetProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-users",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/users",
		Summary:     "List the project owner and participants",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListProjectUsersInput) (*ListProjectUsersOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		users, err := accessSvc.ProjectUsers(ctx, input.ID, caller)
		if err != nil {
			return nil, domainError(err, "project")
		}

		for _, u := range users {
			u.PasswordHash = ""
		}

		return &ListProjectUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-participant",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/participants",
		Summary:     "Invite a user to a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *AddParticipantInput) (*AddParticipantOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		p, err := accessSvc.AddParticipant(ctx, input.ID, caller, input.Body.UserID)
		if err != nil {
			return nil, domainError(err, "participant")
		}

		return &AddParticipantOutput{Body: p}, nil
	})
}
