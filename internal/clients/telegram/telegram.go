package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	defaultTimeout = 10 * time.Second
)

var ErrNotConfigured = errors.New("telegram is not configured")

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

type Client struct {
	http   *resty.Client
	token  string
	chatID string
}

func New(baseURL, token, chatID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(defaultTimeout),
		token:  token,
		chatID: chatID,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.token != "" && c.chatID != ""
}

// SendMessage отправляет текст в чат, заданный при создании клиента.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	const op = "clients.telegram.SendMessage"

	if !c.Configured() {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var result apiResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: c.chatID, Text: text}).
		SetResult(&result).
		SetError(&result).
		Post("/bot" + c.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%s: telegram responded with status %d: %s", op, resp.StatusCode(), result.Description)
	}

	return nil
}
