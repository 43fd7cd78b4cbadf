package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Chat identifies a Telegram conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is an incoming or sent Telegram message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Update is one entry from the Bot API getUpdates long poll.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// BotClient is a minimal Telegram Bot API client covering the calls the
// bot and the notifier need: sendMessage and getUpdates long polling.
type BotClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// ClientOption configures optional BotClient parameters.
type ClientOption func(*BotClient)

// WithBaseURL overrides the Bot API base URL (used in tests).
func WithBaseURL(url string) ClientOption {
	return func(c *BotClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *BotClient) {
		c.http = hc
	}
}

// NewBotClient creates a BotClient for the given bot token.
func NewBotClient(token string, opts ...ClientOption) *BotClient {
	c := &BotClient{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 65 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *BotClient) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram.BotClient.call: marshal: %w", err)
	}

	url := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram.BotClient.call: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram.BotClient.call: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram.BotClient.call: %s: decode: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram.BotClient.call: %s: api error: %s", method, api.Description)
	}
	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("telegram.BotClient.call: %s: result: %w", method, err)
		}
	}

	return nil
}

// SendMessage posts a text message to a chat and returns the message ID.
func (c *BotClient) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return "", fmt.Errorf("telegram.BotClient.SendMessage: %w", err)
	}

	return strconv.FormatInt(msg.MessageID, 10), nil
}

// GetUpdates long-polls for incoming updates after the given offset.
func (c *BotClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, fmt.Errorf("telegram.BotClient.GetUpdates: %w", err)
	}

	return updates, nil
}
