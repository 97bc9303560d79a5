package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bnema/teneo-node-cli/internal/ports"
)

const (
	defaultBaseURL    = "https://api.telegram.org"
	maxResponseBytes  = 1 << 20
	defaultParseMode  = "Markdown"
	defaultReqTimeout = 30 * time.Second
)

// Notifier delivers messages to a fixed chat through the Bot API.
type Notifier struct {
	BotToken       string
	ChatID         string
	BaseURL        string
	ParseMode      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Notifier = Notifier{}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n Notifier) Send(ctx context.Context, text string) error {
	if n.BotToken == "" || n.ChatID == "" {
		return errors.New("bot token and chat id are required")
	}

	baseURL := n.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parseMode := n.ParseMode
	if parseMode == "" {
		parseMode = defaultParseMode
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    n.ChatID,
		Text:      text,
		ParseMode: parseMode,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	requestCtx, cancel := n.requestContext(ctx)
	defer cancel()
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", baseURL, n.BotToken)
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var payload sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return fmt.Errorf("decode send response: %w", err)
	}
	if !payload.OK {
		if payload.Description != "" {
			return fmt.Errorf("send message: %s", payload.Description)
		}
		return fmt.Errorf("send message: status %d", resp.StatusCode)
	}

	return nil
}

func (n Notifier) httpClient() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return http.DefaultClient
}

func (n Notifier) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := n.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultReqTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}
