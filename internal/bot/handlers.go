package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskline/internal/domain"
	redisstore "github.com/gosuda/taskline/internal/store/redis"
	"github.com/gosuda/taskline/internal/tasks"
)

const (
	modeLogin    = "login"
	modeRegister = "register"

	stepUsername = "username"
	stepPassword = "password"
)

const guestHelp = "Commands:\n/login - sign in\n/register - create an account"

const userHelp = "Commands:\n/projects - list your projects\n/tasks - show tasks of the last selected project\n/logout - sign out"

func (b *Bot) handleStart(ctx context.Context, chatID string) {
	_, ok, err := b.sessions.Authenticated(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleStart: session lookup failed")
	}
	if ok {
		b.reply(ctx, chatID, "Welcome back!\n"+userHelp)
		return
	}
	b.reply(ctx, chatID, "Hi! Sign in to see your projects.\n"+guestHelp)
}

func (b *Bot) beginLogin(ctx context.Context, chatID, mode string) {
	st := &redisstore.LoginState{Mode: mode, Step: stepUsername}
	if err := b.sessions.SetLoginState(ctx, chatID, st); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.beginLogin: save state failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	if mode == modeRegister {
		b.reply(ctx, chatID, "Enter a username for your new account:")
		return
	}
	b.reply(ctx, chatID, "Enter your username:")
}

func (b *Bot) handleLogout(ctx context.Context, chatID string) {
	if err := b.sessions.ClearLoginState(ctx, chatID); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleLogout: clear login state failed")
	}
	if err := b.sessions.ClearAuthenticated(ctx, chatID); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleLogout: clear session failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	b.reply(ctx, chatID, "You are signed out.\n"+guestHelp)
}

func (b *Bot) handleProjects(ctx context.Context, chatID string) {
	userID, ok := b.authenticated(ctx, chatID)
	if !ok {
		return
	}

	projects, err := b.projects.ProjectsForUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleProjects: list failed")
		b.reply(ctx, chatID, "Could not load your projects, please try again.")
		return
	}
	if len(projects) == 0 {
		b.reply(ctx, chatID, "You have no projects yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your projects:\n")
	for i, p := range projects {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p.Title)
	}
	sb.WriteString("\nReply with a project name to see its tasks.")
	b.reply(ctx, chatID, sb.String())
}

// handleLastProjectTasks re-shows the tasks of the most recently
// selected project.
func (b *Bot) handleLastProjectTasks(ctx context.Context, chatID string) {
	userID, ok := b.authenticated(ctx, chatID)
	if !ok {
		return
	}

	projectID, ok, err := b.sessions.LastProject(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleLastProjectTasks: session lookup failed")
	}
	if !ok {
		b.reply(ctx, chatID, "Select a project first with /projects.")
		return
	}

	project, err := b.projects.AuthorizedProject(ctx, projectID, userID)
	if err != nil {
		b.reply(ctx, chatID, "That project is no longer available. Use /projects to pick another.")
		return
	}

	b.showTasks(ctx, chatID, userID, project)
}

// handleText resolves plain text: a pending login step takes priority,
// then project selection by title.
func (b *Bot) handleText(ctx context.Context, chatID, text string) {
	st, err := b.sessions.LoginState(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.handleText: session lookup failed")
	}
	if st != nil {
		b.continueLogin(ctx, chatID, st, text)
		return
	}

	userID, ok := b.authenticated(ctx, chatID)
	if !ok {
		return
	}
	b.selectProject(ctx, chatID, userID, text)
}

func (b *Bot) continueLogin(ctx context.Context, chatID string, st *redisstore.LoginState, text string) {
	switch st.Step {
	case stepUsername:
		st.Username = text
		st.Step = stepPassword
		if err := b.sessions.SetLoginState(ctx, chatID, st); err != nil {
			log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.continueLogin: save state failed")
			b.reply(ctx, chatID, "Something went wrong, please try again.")
			return
		}
		b.reply(ctx, chatID, "Enter your password:")

	case stepPassword:
		// The conversation ends here whether credentials check out or not.
		if err := b.sessions.ClearLoginState(ctx, chatID); err != nil {
			log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.continueLogin: clear state failed")
		}
		b.finishLogin(ctx, chatID, st.Mode, st.Username, text)

	default:
		_ = b.sessions.ClearLoginState(ctx, chatID)
	}
}

func (b *Bot) finishLogin(ctx context.Context, chatID, mode, username, password string) {
	var (
		user *domain.User
		err  error
	)
	if mode == modeRegister {
		user, err = b.auth.Register(ctx, username, password)
	} else {
		user, err = b.auth.Authenticate(ctx, username, password)
	}
	if err != nil {
		if mode == modeRegister {
			b.reply(ctx, chatID, "Registration failed. The username may be taken; try /register again.")
		} else {
			b.reply(ctx, chatID, "Wrong username or password. Try /login again.")
		}
		return
	}

	if err := b.sessions.SetAuthenticated(ctx, chatID, user.ID); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.finishLogin: save session failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	b.ensureLink(ctx, chatID, user.ID)

	if mode == modeRegister {
		b.reply(ctx, chatID, fmt.Sprintf("Account %s created. You are signed in.\n%s", user.Username, userHelp))
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Signed in as %s.\n%s", user.Username, userHelp))
}

// ensureLink records this chat as the user's Telegram identity so task
// notifications reach them. Idempotent across repeat logins.
func (b *Bot) ensureLink(ctx context.Context, chatID string, userID uuid.UUID) {
	links, err := b.links.ListMessengerLinks(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.ensureLink: list links failed")
		return
	}
	for _, l := range links {
		if l.Platform == "telegram" && l.ExternalID == chatID {
			return
		}
	}

	link := &domain.MessengerLink{
		ID:         uuid.New(),
		UserID:     userID,
		Platform:   "telegram",
		ExternalID: chatID,
	}
	if err := b.links.SaveMessengerLink(ctx, link); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.ensureLink: save link failed")
	}
}

// selectProject matches the text against the user's project titles.
func (b *Bot) selectProject(ctx context.Context, chatID string, userID uuid.UUID, text string) {
	projects, err := b.projects.ProjectsForUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.selectProject: list failed")
		b.reply(ctx, chatID, "Could not load your projects, please try again.")
		return
	}

	var selected *domain.Project
	for _, p := range projects {
		if p.Title == text {
			selected = p
			break
		}
	}
	if selected == nil {
		b.reply(ctx, chatID, "I did not recognize that. Use /projects to list your projects.")
		return
	}

	if err := b.sessions.SetLastProject(ctx, chatID, selected.ID); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.selectProject: save selection failed")
	}

	b.showTasks(ctx, chatID, userID, selected)
}

func (b *Bot) showTasks(ctx context.Context, chatID string, userID uuid.UUID, project *domain.Project) {
	taskList, err := b.tasks.TasksForProject(ctx, project.ID, userID, tasks.ScopeProject)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.showTasks: list failed")
		b.reply(ctx, chatID, "Could not load the tasks, please try again.")
		return
	}
	if len(taskList) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("No tasks in %q yet.", project.Title))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tasks in %q:\n", project.Title)
	for i, t := range taskList {
		fmt.Fprintf(&sb, "\n%d. %s [%s]\n", i+1, t.Title, t.Status.Label())
		if t.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", t.Description)
		}
		fmt.Fprintf(&sb, "   Priority: %s", t.Priority)
		if t.Term != nil {
			fmt.Fprintf(&sb, ", due %s", t.Term.Format("2006-01-02"))
		}
		sb.WriteString("\n")
	}
	b.reply(ctx, chatID, sb.String())
}

// authenticated resolves the chat's user, prompting for /login when the
// session is missing or expired.
func (b *Bot) authenticated(ctx context.Context, chatID string) (uuid.UUID, bool) {
	userID, ok, err := b.sessions.Authenticated(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("bot.authenticated: session lookup failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return uuid.Nil, false
	}
	if !ok {
		b.reply(ctx, chatID, "Please sign in first.\n"+guestHelp)
		return uuid.Nil, false
	}
	return userID, true
}
