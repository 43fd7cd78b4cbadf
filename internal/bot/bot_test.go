package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/messenger/telegram"
	redisstore "github.com/gosuda/taskline/internal/store/redis"
	"github.com/gosuda/taskline/internal/tasks"
)

const testChatID = "42"

type sentMessage struct {
	chatID string
	text   string
}

type fakeAPI struct {
	sent    []sentMessage
	updates chan []telegram.Update
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID, text string) (string, error) {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return "1", nil
}

func (f *fakeAPI) GetUpdates(ctx context.Context, _ int64, _ time.Duration) ([]telegram.Update, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case batch := <-f.updates:
		return batch, nil
	}
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1].text
}

type fakeSessions struct {
	login map[string]*redisstore.LoginState
	auth  map[string]uuid.UUID
	last  map[string]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		login: make(map[string]*redisstore.LoginState),
		auth:  make(map[string]uuid.UUID),
		last:  make(map[string]uuid.UUID),
	}
}

func (f *fakeSessions) LoginState(_ context.Context, chatID string) (*redisstore.LoginState, error) {
	return f.login[chatID], nil
}

func (f *fakeSessions) SetLoginState(_ context.Context, chatID string, st *redisstore.LoginState) error {
	f.login[chatID] = st
	return nil
}

func (f *fakeSessions) ClearLoginState(_ context.Context, chatID string) error {
	delete(f.login, chatID)
	return nil
}

func (f *fakeSessions) SetAuthenticated(_ context.Context, chatID string, userID uuid.UUID) error {
	f.auth[chatID] = userID
	return nil
}

func (f *fakeSessions) Authenticated(_ context.Context, chatID string) (uuid.UUID, bool, error) {
	id, ok := f.auth[chatID]
	return id, ok, nil
}

func (f *fakeSessions) ClearAuthenticated(_ context.Context, chatID string) error {
	delete(f.auth, chatID)
	delete(f.last, chatID)
	return nil
}

func (f *fakeSessions) SetLastProject(_ context.Context, chatID string, projectID uuid.UUID) error {
	f.last[chatID] = projectID
	return nil
}

func (f *fakeSessions) LastProject(_ context.Context, chatID string) (uuid.UUID, bool, error) {
	id, ok := f.last[chatID]
	return id, ok, nil
}

type fakeAuth struct {
	authenticateFn func(ctx context.Context, username, password string) (*domain.User, error)
	registerFn     func(ctx context.Context, username, password string) (*domain.User, error)
}

func (f *fakeAuth) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	return f.authenticateFn(ctx, username, password)
}

func (f *fakeAuth) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return f.registerFn(ctx, username, password)
}

type fakeProjects struct {
	projectsForUserFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	authorizedProjectFn func(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
}

func (f *fakeProjects) ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return f.projectsForUserFn(ctx, userID)
}

func (f *fakeProjects) AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error) {
	return f.authorizedProjectFn(ctx, projectID, userID)
}

type fakeTasks struct {
	tasksForProjectFn func(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error)
}

func (f *fakeTasks) TasksForProject(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error) {
	return f.tasksForProjectFn(ctx, projectID, callerID, scope)
}

type fakeLinks struct {
	saved []*domain.MessengerLink
	list  []*domain.MessengerLink
}

func (f *fakeLinks) SaveMessengerLink(_ context.Context, link *domain.MessengerLink) error {
	f.saved = append(f.saved, link)
	return nil
}

func (f *fakeLinks) ListMessengerLinks(_ context.Context, _ uuid.UUID) ([]*domain.MessengerLink, error) {
	return f.list, nil
}

type botFixture struct {
	bot      *Bot
	api      *fakeAPI
	sessions *fakeSessions
	auth     *fakeAuth
	projects *fakeProjects
	tasks    *fakeTasks
	links    *fakeLinks
}

func newFixture() *botFixture {
	f := &botFixture{
		api:      &fakeAPI{updates: make(chan []telegram.Update)},
		sessions: newFakeSessions(),
		auth:     &fakeAuth{},
		projects: &fakeProjects{},
		tasks:    &fakeTasks{},
		links:    &fakeLinks{},
	}
	f.bot = New(f.api, f.sessions, f.auth, f.projects, f.tasks, f.links, time.Second)
	return f
}

// send feeds one text message from the test chat through the dispatcher.
func (f *botFixture) send(ctx context.Context, text string) {
	f.bot.handleUpdate(ctx, telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			Text: text,
			Chat: telegram.Chat{ID: 42},
		},
	})
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("guest sees sign-in help", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.send(t.Context(), "/start")

		assert.Contains(t, f.api.lastText(t), "/login")
	})

	t.Run("authenticated user sees commands", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()
		f.send(t.Context(), "/start")

		assert.Contains(t, f.api.lastText(t), "/projects")
	})
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	t.Run("happy path authenticates and links the chat", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Username: "alice"}
		f := newFixture()
		f.auth.authenticateFn = func(_ context.Context, username, password string) (*domain.User, error) {
			assert.Equal(t, "alice", username)
			assert.Equal(t, "s3cret-pass", password)
			return user, nil
		}

		ctx := t.Context()
		f.send(ctx, "/login")
		assert.Contains(t, f.api.lastText(t), "username")

		f.send(ctx, "alice")
		assert.Contains(t, f.api.lastText(t), "password")

		f.send(ctx, "s3cret-pass")
		assert.Contains(t, f.api.lastText(t), "Signed in as alice")

		gotID, ok := f.sessions.auth[testChatID]
		require.True(t, ok)
		assert.Equal(t, user.ID, gotID)

		// The login conversation must not outlive the flow.
		assert.Nil(t, f.sessions.login[testChatID])

		require.Len(t, f.links.saved, 1)
		assert.Equal(t, user.ID, f.links.saved[0].UserID)
		assert.Equal(t, "telegram", f.links.saved[0].Platform)
		assert.Equal(t, testChatID, f.links.saved[0].ExternalID)
	})

	t.Run("wrong password clears the conversation", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.auth.authenticateFn = func(context.Context, string, string) (*domain.User, error) {
			return nil, assert.AnError
		}

		ctx := t.Context()
		f.send(ctx, "/login")
		f.send(ctx, "alice")
		f.send(ctx, "wrong")

		assert.Contains(t, f.api.lastText(t), "Wrong username or password")
		_, ok := f.sessions.auth[testChatID]
		assert.False(t, ok)
		assert.Nil(t, f.sessions.login[testChatID])
	})

	t.Run("repeat login does not duplicate the link", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Username: "alice"}
		f := newFixture()
		f.auth.authenticateFn = func(context.Context, string, string) (*domain.User, error) {
			return user, nil
		}
		f.links.list = []*domain.MessengerLink{
			{UserID: user.ID, Platform: "telegram", ExternalID: testChatID},
		}

		ctx := t.Context()
		f.send(ctx, "/login")
		f.send(ctx, "alice")
		f.send(ctx, "s3cret-pass")

		assert.Empty(t, f.links.saved)
	})
}

func TestRegisterFlow(t *testing.T) {
	t.Parallel()

	t.Run("creates the account and signs in", func(t *testing.T) {
		t.Parallel()

		user := &domain.User{ID: uuid.New(), Username: "bob"}
		f := newFixture()
		f.auth.registerFn = func(_ context.Context, username, password string) (*domain.User, error) {
			assert.Equal(t, "bob", username)
			assert.Equal(t, "hunter2-long", password)
			return user, nil
		}

		ctx := t.Context()
		f.send(ctx, "/register")
		f.send(ctx, "bob")
		f.send(ctx, "hunter2-long")

		assert.Contains(t, f.api.lastText(t), "Account bob created")
		gotID, ok := f.sessions.auth[testChatID]
		require.True(t, ok)
		assert.Equal(t, user.ID, gotID)
	})

	t.Run("taken username reports failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.auth.registerFn = func(context.Context, string, string) (*domain.User, error) {
			return nil, assert.AnError
		}

		ctx := t.Context()
		f.send(ctx, "/register")
		f.send(ctx, "bob")
		f.send(ctx, "hunter2-long")

		assert.Contains(t, f.api.lastText(t), "Registration failed")
		_, ok := f.sessions.auth[testChatID]
		assert.False(t, ok)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.sessions.auth[testChatID] = uuid.New()
	f.sessions.last[testChatID] = uuid.New()

	f.send(t.Context(), "/logout")

	assert.Contains(t, f.api.lastText(t), "signed out")
	_, ok := f.sessions.auth[testChatID]
	assert.False(t, ok)
	_, ok = f.sessions.last[testChatID]
	assert.False(t, ok)
}

func TestProjects(t *testing.T) {
	t.Parallel()

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.send(t.Context(), "/projects")

		assert.Contains(t, f.api.lastText(t), "sign in")
	})

	t.Run("lists project titles", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		f := newFixture()
		f.sessions.auth[testChatID] = userID
		f.projects.projectsForUserFn = func(_ context.Context, got uuid.UUID) ([]*domain.Project, error) {
			assert.Equal(t, userID, got)
			return []*domain.Project{
				{ID: uuid.New(), Title: "Roadmap"},
				{ID: uuid.New(), Title: "Chores"},
			}, nil
		}

		f.send(t.Context(), "/projects")

		text := f.api.lastText(t)
		assert.Contains(t, text, "1. Roadmap")
		assert.Contains(t, text, "2. Chores")
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()
		f.projects.projectsForUserFn = func(context.Context, uuid.UUID) ([]*domain.Project, error) {
			return nil, nil
		}

		f.send(t.Context(), "/projects")

		assert.Contains(t, f.api.lastText(t), "no projects")
	})
}

func TestSelectProject(t *testing.T) {
	t.Parallel()

	t.Run("matching title shows tasks and remembers the selection", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		project := &domain.Project{ID: uuid.New(), Title: "Roadmap"}
		f := newFixture()
		f.sessions.auth[testChatID] = userID
		f.projects.projectsForUserFn = func(context.Context, uuid.UUID) ([]*domain.Project, error) {
			return []*domain.Project{project}, nil
		}
		f.tasks.tasksForProjectFn = func(_ context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error) {
			assert.Equal(t, project.ID, projectID)
			assert.Equal(t, userID, callerID)
			assert.Equal(t, tasks.ScopeProject, scope)
			return []*domain.Task{
				{Title: "Ship v1", Status: domain.TaskStatusInProgress, Priority: domain.TaskPriorityHigh},
			}, nil
		}

		f.send(t.Context(), "Roadmap")

		text := f.api.lastText(t)
		assert.Contains(t, text, "Ship v1")
		assert.Contains(t, text, "In progress")
		assert.Equal(t, project.ID, f.sessions.last[testChatID])
	})

	t.Run("unknown title is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()
		f.projects.projectsForUserFn = func(context.Context, uuid.UUID) ([]*domain.Project, error) {
			return []*domain.Project{{ID: uuid.New(), Title: "Roadmap"}}, nil
		}

		f.send(t.Context(), "Nope")

		assert.Contains(t, f.api.lastText(t), "did not recognize")
	})

	t.Run("empty project", func(t *testing.T) {
		t.Parallel()

		project := &domain.Project{ID: uuid.New(), Title: "Roadmap"}
		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()
		f.projects.projectsForUserFn = func(context.Context, uuid.UUID) ([]*domain.Project, error) {
			return []*domain.Project{project}, nil
		}
		f.tasks.tasksForProjectFn = func(context.Context, uuid.UUID, uuid.UUID, tasks.Scope) ([]*domain.Task, error) {
			return nil, nil
		}

		f.send(t.Context(), "Roadmap")

		assert.Contains(t, f.api.lastText(t), `No tasks in "Roadmap" yet`)
	})
}

func TestTasksCommand(t *testing.T) {
	t.Parallel()

	t.Run("no selection yet", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()

		f.send(t.Context(), "/tasks")

		assert.Contains(t, f.api.lastText(t), "Select a project first")
	})

	t.Run("re-shows the last selected project", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		project := &domain.Project{ID: uuid.New(), Title: "Roadmap"}
		f := newFixture()
		f.sessions.auth[testChatID] = userID
		f.sessions.last[testChatID] = project.ID
		f.projects.authorizedProjectFn = func(_ context.Context, projectID, callerID uuid.UUID) (*domain.Project, error) {
			assert.Equal(t, project.ID, projectID)
			assert.Equal(t, userID, callerID)
			return project, nil
		}
		f.tasks.tasksForProjectFn = func(context.Context, uuid.UUID, uuid.UUID, tasks.Scope) ([]*domain.Task, error) {
			return []*domain.Task{{Title: "Ship v1", Status: domain.TaskStatusTodo, Priority: domain.TaskPriorityMedium}}, nil
		}

		f.send(t.Context(), "/tasks")

		assert.Contains(t, f.api.lastText(t), "Ship v1")
	})

	t.Run("revoked access falls back to project list", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.sessions.auth[testChatID] = uuid.New()
		f.sessions.last[testChatID] = uuid.New()
		f.projects.authorizedProjectFn = func(context.Context, uuid.UUID, uuid.UUID) (*domain.Project, error) {
			return nil, domain.AccessDenied("not a participant")
		}

		f.send(t.Context(), "/tasks")

		assert.Contains(t, f.api.lastText(t), "no longer available")
	})
}

func TestRun_AdvancesOffsetAndStopsOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() {
		done <- f.bot.Run(ctx)
	}()

	f.api.updates <- []telegram.Update{
		{UpdateID: 7, Message: &telegram.Message{Text: "/start", Chat: telegram.Chat{ID: 42}}},
	}
	// Delivering a second batch proves the first one was consumed.
	f.api.updates <- nil

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}

	require.NotEmpty(t, f.api.sent)
	assert.Equal(t, testChatID, f.api.sent[0].chatID)
}
