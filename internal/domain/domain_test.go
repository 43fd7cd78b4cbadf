package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskline/internal/domain"
)

// ---------------------------------------------------------------------------
// 1. Status and priority token parsing.
// ---------------------------------------------------------------------------

func TestParseTaskStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  domain.TaskStatus
		ok    bool
	}{
		{"todo", domain.TaskStatusTodo, true},
		{"in-progress", domain.TaskStatusInProgress, true},
		{"done", domain.TaskStatusDone, true},
		{"bogus", "", false},
		{"", "", false},
		{"Done", "", false}, // tokens are case-sensitive
		{"in_progress", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()

			got, ok := domain.ParseTaskStatus(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTaskPriority(t *testing.T) {
	t.Parallel()

	valid := []string{"very-low", "low", "medium", "high", "urgent"}
	for _, token := range valid {
		t.Run(token, func(t *testing.T) {
			t.Parallel()

			got, ok := domain.ParseTaskPriority(token)
			require.True(t, ok)
			assert.Equal(t, domain.TaskPriority(token), got)
		})
	}

	for _, token := range []string{"", "critical", "LOW", "very_low"} {
		t.Run("invalid_"+token, func(t *testing.T) {
			t.Parallel()

			_, ok := domain.ParseTaskPriority(token)
			assert.False(t, ok)
		})
	}
}

func TestTaskStatus_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Waiting", domain.TaskStatusTodo.Label())
	assert.Equal(t, "In progress", domain.TaskStatusInProgress.Label())
	assert.Equal(t, "Done", domain.TaskStatusDone.Label())
	assert.Equal(t, "archived", domain.TaskStatus("archived").Label())
}

// ---------------------------------------------------------------------------
// 2. Constructors.
// ---------------------------------------------------------------------------

func TestNewProject(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		p, err := domain.NewProject(ownerID, "Renovation", "#ff8800")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, ownerID, p.OwnerID)
		assert.Equal(t, "Renovation", p.Title)
		assert.Equal(t, "#ff8800", p.Color)
		assert.Empty(t, p.Participants)
	})

	t.Run("default_color", func(t *testing.T) {
		t.Parallel()

		p, err := domain.NewProject(ownerID, "Renovation", "")
		require.NoError(t, err)
		assert.NotEmpty(t, p.Color)
	})

	t.Run("missing_owner", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewProject(uuid.Nil, "Renovation", "#fff")
		require.Error(t, err)
	})

	t.Run("missing_title", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewProject(ownerID, "", "#fff")
		require.Error(t, err)
	})
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		task, err := domain.NewTask(projectID, "Paint the fence")
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
		assert.False(t, task.Done)
		assert.Nil(t, task.OwnerID)
		assert.Nil(t, task.Term)
	})

	t.Run("missing_title", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(projectID, "")
		require.Error(t, err)
	})

	t.Run("missing_project", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTask(uuid.Nil, "Paint the fence")
		require.Error(t, err)
	})
}

// ---------------------------------------------------------------------------
// 3. Membership helpers.
// ---------------------------------------------------------------------------

func TestProject_Membership(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	participant := uuid.New()
	outsider := uuid.New()

	p := &domain.Project{
		ID:           uuid.New(),
		OwnerID:      owner,
		Participants: []uuid.UUID{participant},
	}

	assert.True(t, p.HasMember(owner))
	assert.True(t, p.HasMember(participant))
	assert.False(t, p.HasMember(outsider))

	assert.False(t, p.IsParticipant(owner))
	assert.True(t, p.IsParticipant(participant))
}

func TestProject_MemberIDs_Deduplicates(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	a := uuid.New()
	b := uuid.New()

	// A participant set polluted with the owner and a duplicate entry;
	// MemberIDs must still yield each member exactly once, owner first.
	p := &domain.Project{
		ID:           uuid.New(),
		OwnerID:      owner,
		Participants: []uuid.UUID{a, owner, b, a},
	}

	got := p.MemberIDs()
	assert.Equal(t, []uuid.UUID{owner, a, b}, got)
}

// ---------------------------------------------------------------------------
// 4. AccessError: presents as ErrNotFound, keeps the reason.
// ---------------------------------------------------------------------------

func TestAccessError(t *testing.T) {
	t.Parallel()

	err := domain.AccessDenied("user is not a member of project")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrForbidden)

	var accessErr *domain.AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, "user is not a member of project", accessErr.Reason)
}
