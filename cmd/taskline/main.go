package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/taskline/internal/access"
	"github.com/gosuda/taskline/internal/auth"
	"github.com/gosuda/taskline/internal/bot"
	"github.com/gosuda/taskline/internal/config"
	"github.com/gosuda/taskline/internal/messenger/slack"
	"github.com/gosuda/taskline/internal/messenger/telegram"
	"github.com/gosuda/taskline/internal/metrics"
	"github.com/gosuda/taskline/internal/notify"
	"github.com/gosuda/taskline/internal/server"
	"github.com/gosuda/taskline/internal/store/postgres"
	redisstore "github.com/gosuda/taskline/internal/store/redis"
	"github.com/gosuda/taskline/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("TASKLINE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("TASKLINE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Apply schema migrations, then connect to PostgreSQL.
	if err := postgres.Migrate(cfg.Database.URL()); err != nil {
		return err
	}

	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for bot session state.
	sessions, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LoginTTL, cfg.Redis.AuthTTL)
	if err != nil {
		return err
	}
	defer sessions.Close()

	// Prometheus metrics.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Messengers: one per configured platform.
	messengers := notify.NewRegistry()

	var tgClient *telegram.BotClient
	if cfg.Telegram.BotToken != "" {
		tgClient = telegram.NewBotClient(cfg.Telegram.BotToken)
		messengers.Register(telegram.NewMessenger(tgClient))
		log.Info().Msg("telegram messenger enabled")
	}
	if cfg.Slack.BotToken != "" {
		messengers.Register(slack.NewMessenger(slacklib.New(cfg.Slack.BotToken)))
		log.Info().Msg("slack messenger enabled")
	}

	notifier := notify.New(
		messengers,
		store.Users(),
		notify.WithSendTimeout(cfg.Notify.SendTimeout),
		notify.WithMetrics(collector),
	)

	// Services.
	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	accessSvc := access.NewService(store.Users(), store.Projects(), notifier)
	taskSvc := tasks.NewService(accessSvc, store.Tasks(), store.Projects(), store.Users(), notifier, tasks.Config{
		OwnerPolicy:  tasks.OwnerPolicy(cfg.Tasks.OwnerPolicy),
		StatusPolicy: tasks.StatusPolicy(cfg.Tasks.StatusPolicy),
	})

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Telegram bot loop, only when a token is configured.
	if tgClient != nil {
		tgBot := bot.New(tgClient, sessions, authSvc, accessSvc, taskSvc, store.Users(), cfg.Telegram.PollTimeout)
		go func() {
			log.Info().Msg("starting telegram bot")
			if botErr := tgBot.Run(ctx); botErr != nil {
				log.Error().Err(botErr).Msg("telegram bot error")
			}
		}()
	}

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, accessSvc, taskSvc, authSvc, collector, registry)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
