// Package redis keeps the bot's conversational state. Every entry
// carries a TTL so abandoned conversations evict themselves instead of
// accumulating in an unbounded in-memory map.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyLogin       = "bot:login:"
	keyAuth        = "bot:auth:"
	keyLastProject = "bot:lastproject:"
)

// LoginState is the linear login/registration FSM for one chat.
type LoginState struct {
	Mode     string `json:"mode"` // "login" or "register"
	Step     string `json:"step"` // "username" or "password"
	Username string `json:"username,omitempty"`
}

// Sessions stores conversational state keyed by chat ID.
type Sessions struct {
	client   *redis.Client
	loginTTL time.Duration
	authTTL  time.Duration
}

// New connects to redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, loginTTL, authTTL time.Duration) (*Sessions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Sessions{
		client:   client,
		loginTTL: loginTTL,
		authTTL:  authTTL,
	}, nil
}

func (s *Sessions) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.Sessions.Close: %w", err)
	}
	return nil
}

// LoginState returns the in-flight login FSM for the chat, or nil when
// no login is in progress.
func (s *Sessions) LoginState(ctx context.Context, chatID string) (*LoginState, error) {
	raw, err := s.client.Get(ctx, keyLogin+chatID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis.Sessions.LoginState: %w", err)
	}

	var st LoginState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("redis.Sessions.LoginState: decode: %w", err)
	}

	return &st, nil
}

// SetLoginState stores the login FSM, refreshing its TTL.
func (s *Sessions) SetLoginState(ctx context.Context, chatID string, st *LoginState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("redis.Sessions.SetLoginState: encode: %w", err)
	}

	if err := s.client.Set(ctx, keyLogin+chatID, raw, s.loginTTL).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.SetLoginState: %w", err)
	}

	return nil
}

// ClearLoginState drops the login FSM (completed or aborted).
func (s *Sessions) ClearLoginState(ctx context.Context, chatID string) error {
	if err := s.client.Del(ctx, keyLogin+chatID).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.ClearLoginState: %w", err)
	}
	return nil
}

// SetAuthenticated records which user the chat is logged in as.
func (s *Sessions) SetAuthenticated(ctx context.Context, chatID string, userID uuid.UUID) error {
	if err := s.client.Set(ctx, keyAuth+chatID, userID.String(), s.authTTL).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.SetAuthenticated: %w", err)
	}
	return nil
}

// Authenticated returns the logged-in user for the chat, if any.
func (s *Sessions) Authenticated(ctx context.Context, chatID string) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, keyAuth+chatID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis.Sessions.Authenticated: %w", err)
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis.Sessions.Authenticated: parse: %w", err)
	}

	return userID, true, nil
}

// ClearAuthenticated logs the chat out and forgets its project selection.
func (s *Sessions) ClearAuthenticated(ctx context.Context, chatID string) error {
	if err := s.client.Del(ctx, keyAuth+chatID, keyLastProject+chatID).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.ClearAuthenticated: %w", err)
	}
	return nil
}

// SetLastProject remembers the chat's most recently selected project.
func (s *Sessions) SetLastProject(ctx context.Context, chatID string, projectID uuid.UUID) error {
	if err := s.client.Set(ctx, keyLastProject+chatID, projectID.String(), s.authTTL).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.SetLastProject: %w", err)
	}
	return nil
}

// LastProject returns the chat's most recently selected project, if any.
func (s *Sessions) LastProject(ctx context.Context, chatID string) (uuid.UUID, bool, error) {
	raw, err := s.client.Get(ctx, keyLastProject+chatID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis.Sessions.LastProject: %w", err)
	}

	projectID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis.Sessions.LastProject: parse: %w", err)
	}

	return projectID, true, nil
}
