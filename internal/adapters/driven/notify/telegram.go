// Package notify delivers operator notifications.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure Telegram implements the interface.
var _ driven.Notifier = (*Telegram)(nil)

// DefaultTelegramURL is the Bot API base URL.
const DefaultTelegramURL = "https://api.telegram.org"

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	token      string
	chatID     string
	prefix     string
	baseURL    string
	httpClient *http.Client
}

// NewTelegram creates a Telegram notifier. A non-empty prefix is prepended
// to each message as "[prefix] ".
func NewTelegram(token, chatID, prefix string) (*Telegram, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("%w: telegram bot token and chat id are required", domain.ErrNotConfigured)
	}
	return &Telegram{
		token:   token,
		chatID:  chatID,
		prefix:  prefix,
		baseURL: DefaultTelegramURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Send posts the message to the configured chat.
func (t *Telegram) Send(ctx context.Context, message string) error {
	text := message
	if t.prefix != "" {
		text = fmt.Sprintf("[%s] %s", t.prefix, message)
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram send failed: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// redact drops the request URL, which carries the bot token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
