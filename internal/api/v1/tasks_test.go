package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/taskline/internal/api/v1"
	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/tasks"
)

func TestCreateTask(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()
	projectID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			addTaskFunc: func(_ context.Context, pid, cid uuid.UUID, spec tasks.TaskSpec) (*domain.Task, error) {
				assert.Equal(t, projectID, pid)
				assert.Equal(t, callerID, cid)
				assert.Equal(t, "Ship the release", spec.Title)
				assert.Equal(t, "high", spec.Priority)

				task, err := domain.NewTask(pid, spec.Title)
				require.NoError(t, err)
				task.Description = spec.Description
				task.Priority = domain.TaskPriorityHigh
				task.OwnerID = &cid
				return task, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(userCtx(callerID), "/tasks", map[string]any{
			"project_id": projectID.String(),
			"title":      "Ship the release",
			"priority":   "high",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Task
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Ship the release", body.Title)
		assert.Equal(t, projectID, body.ProjectID)
		require.NotNil(t, body.OwnerID)
		assert.Equal(t, callerID, *body.OwnerID)
	})

	t.Run("missing_authentication", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTaskRoutes(api, &mockTaskService{})

		resp := api.PostCtx(context.Background(), "/tasks", map[string]any{
			"project_id": projectID.String(),
			"title":      "No auth",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("invisible_project_maps_to_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			addTaskFunc: func(_ context.Context, _, _ uuid.UUID, _ tasks.TaskSpec) (*domain.Task, error) {
				return nil, domain.AccessDenied("not a member")
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(userCtx(callerID), "/tasks", map[string]any{
			"project_id": projectID.String(),
			"title":      "Hidden",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("bad_status_token_maps_to_422", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			addTaskFunc: func(_ context.Context, _, _ uuid.UUID, _ tasks.TaskSpec) (*domain.Task, error) {
				return nil, domain.ErrValidation
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(userCtx(callerID), "/tasks", map[string]any{
			"project_id": projectID.String(),
			"title":      "Bad status",
			"status":     "bogus",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()
	projectID := uuid.New()

	t.Run("default_scope_is_project", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			tasksForProjectFunc: func(_ context.Context, pid, cid uuid.UUID, scope tasks.Scope) ([]*domain.Task, error) {
				assert.Equal(t, projectID, pid)
				assert.Equal(t, callerID, cid)
				assert.Equal(t, tasks.ScopeProject, scope)
				return []*domain.Task{}, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.GetCtx(userCtx(callerID), "/tasks?project_id="+projectID.String())

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("owned_scope_is_forwarded", func(t *testing.T) {
		t.Parallel()

		task, _ := domain.NewTask(projectID, "Mine")

		_, api := humatest.New(t)
		svc := &mockTaskService{
			tasksForProjectFunc: func(_ context.Context, _, _ uuid.UUID, scope tasks.Scope) ([]*domain.Task, error) {
				assert.Equal(t, tasks.ScopeOwned, scope)
				return []*domain.Task{task}, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.GetCtx(userCtx(callerID), "/tasks?project_id="+projectID.String()+"&scope=owned")

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.Task
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "Mine", body[0].Title)
	})
}

func TestUpdateTaskStatus(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()
	taskID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			updateTaskStatusFunc: func(_ context.Context, tid, cid uuid.UUID, done bool, status string) (*domain.Task, error) {
				assert.Equal(t, taskID, tid)
				assert.Equal(t, callerID, cid)
				assert.True(t, done)
				assert.Equal(t, "done", status)

				task, _ := domain.NewTask(uuid.New(), "Finished")
				task.ID = tid
				task.Done = true
				task.Status = domain.TaskStatusDone
				return task, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PatchCtx(userCtx(callerID), "/tasks/"+taskID.String()+"/status", map[string]any{
			"done":   true,
			"status": "done",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Task
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Done)
		assert.Equal(t, domain.TaskStatusDone, body.Status)
	})

	t.Run("non_owner_maps_to_403", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			updateTaskStatusFunc: func(_ context.Context, _, _ uuid.UUID, _ bool, _ string) (*domain.Task, error) {
				return nil, domain.ErrForbidden
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PatchCtx(userCtx(callerID), "/tasks/"+taskID.String()+"/status", map[string]any{
			"done": true,
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()
	taskID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var deleted bool
		_, api := humatest.New(t)
		svc := &mockTaskService{
			deleteTaskFunc: func(_ context.Context, tid, cid uuid.UUID) error {
				deleted = true
				assert.Equal(t, taskID, tid)
				assert.Equal(t, callerID, cid)
				return nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.DeleteCtx(userCtx(callerID), "/tasks/"+taskID.String())

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.True(t, deleted, "service.DeleteTask must be invoked")
	})

	t.Run("gone_task_maps_to_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			deleteTaskFunc: func(_ context.Context, _, _ uuid.UUID) error {
				return domain.ErrNotFound
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.DeleteCtx(userCtx(callerID), "/tasks/"+taskID.String())

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestTransferTask(t *testing.T) {
	t.Parallel()

	callerID := uuid.New()
	taskID := uuid.New()
	recipientID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			transferTaskFunc: func(_ context.Context, tid, from, to uuid.UUID) (*domain.Task, error) {
				assert.Equal(t, taskID, tid)
				assert.Equal(t, callerID, from)
				assert.Equal(t, recipientID, to)

				task, _ := domain.NewTask(uuid.New(), "Handed off")
				task.ID = tid
				task.OwnerID = &to
				return task, nil
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(userCtx(callerID), "/tasks/"+taskID.String()+"/transfer", map[string]any{
			"to_user_id": recipientID.String(),
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Task
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.OwnerID)
		assert.Equal(t, recipientID, *body.OwnerID)
	})

	t.Run("recipient_outside_project_maps_to_403", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockTaskService{
			transferTaskFunc: func(_ context.Context, _, _, _ uuid.UUID) (*domain.Task, error) {
				return nil, domain.ErrForbidden
			},
		}
		v1.RegisterTaskRoutes(api, svc)

		resp := api.PostCtx(userCtx(callerID), "/tasks/"+taskID.String()+"/transfer", map[string]any{
			"to_user_id": recipientID.String(),
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}
