// Package bot implements the Telegram chat interface: a long-poll loop
// that lets users register, log in and browse their projects and tasks
// from a conversation. Conversational state lives in redis with TTLs,
// so a restarted bot picks up where it left off and abandoned logins
// expire on their own.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/messenger/telegram"
	redisstore "github.com/gosuda/taskline/internal/store/redis"
	"github.com/gosuda/taskline/internal/tasks"
)

// pollRetryDelay spaces out retries after a failed getUpdates call.
const pollRetryDelay = 5 * time.Second

// API is the Telegram Bot API surface the bot needs.
// *telegram.BotClient satisfies this interface.
type API interface {
	SendMessage(ctx context.Context, chatID, text string) (string, error)
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// SessionStore persists conversational state between updates.
// *redisstore.Sessions satisfies this interface.
type SessionStore interface {
	LoginState(ctx context.Context, chatID string) (*redisstore.LoginState, error)
	SetLoginState(ctx context.Context, chatID string, st *redisstore.LoginState) error
	ClearLoginState(ctx context.Context, chatID string) error
	SetAuthenticated(ctx context.Context, chatID string, userID uuid.UUID) error
	Authenticated(ctx context.Context, chatID string) (uuid.UUID, bool, error)
	ClearAuthenticated(ctx context.Context, chatID string) error
	SetLastProject(ctx context.Context, chatID string, projectID uuid.UUID) error
	LastProject(ctx context.Context, chatID string) (uuid.UUID, bool, error)
}

// AuthService verifies and creates accounts. *auth.Service satisfies it.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Register(ctx context.Context, username, password string) (*domain.User, error)
}

// ProjectService lists the projects a user participates in.
// *access.Service satisfies it.
type ProjectService interface {
	ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	AuthorizedProject(ctx context.Context, projectID, userID uuid.UUID) (*domain.Project, error)
}

// TaskService lists tasks within a project. *tasks.Service satisfies it.
type TaskService interface {
	TasksForProject(ctx context.Context, projectID, callerID uuid.UUID, scope tasks.Scope) ([]*domain.Task, error)
}

// LinkStore records the chat identity of a logged-in user so the
// notifier can reach them later.
type LinkStore interface {
	SaveMessengerLink(ctx context.Context, link *domain.MessengerLink) error
	ListMessengerLinks(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error)
}

// Bot routes incoming Telegram updates to command handlers.
type Bot struct {
	api         API
	sessions    SessionStore
	auth        AuthService
	projects    ProjectService
	tasks       TaskService
	links       LinkStore
	pollTimeout time.Duration
}

// New creates a Bot. pollTimeout bounds each getUpdates long poll.
func New(api API, sessions SessionStore, auth AuthService, projects ProjectService, taskSvc TaskService, links LinkStore, pollTimeout time.Duration) *Bot {
	return &Bot{
		api:         api,
		sessions:    sessions,
		auth:        auth,
		projects:    projects,
		tasks:       taskSvc,
		links:       links,
		pollTimeout: pollTimeout,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64

	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Msg("bot.Run: getUpdates failed, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u telegram.Update) {
	if u.Message == nil {
		return
	}

	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}
	chatID := strconv.FormatInt(u.Message.Chat.ID, 10)

	switch text {
	case "/start":
		b.handleStart(ctx, chatID)
	case "/login":
		b.beginLogin(ctx, chatID, modeLogin)
	case "/register":
		b.beginLogin(ctx, chatID, modeRegister)
	case "/logout":
		b.handleLogout(ctx, chatID)
	case "/projects":
		b.handleProjects(ctx, chatID)
	case "/tasks":
		b.handleLastProjectTasks(ctx, chatID)
	default:
		b.handleText(ctx, chatID, text)
	}
}

// reply sends a message and logs delivery failures instead of
// propagating them; a lost reply must not stall the poll loop.
func (b *Bot) reply(ctx context.Context, chatID, text string) {
	if _, err := b.api.SendMessage(ctx, chatID, text); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.reply: send failed")
	}
}
