package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
	"solana-alerts/internal/retry"
)

// DefaultTelegramBaseURL is the public Bot API host.
const DefaultTelegramBaseURL = "https://api.telegram.org"

// DefaultTimeout bounds a single outbound delivery attempt.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx reply from an HTTP sink.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// ClassifyHTTP retries network failures, 429 and 5xx replies. Other status
// codes and context errors are fatal.
func ClassifyHTTP(err error) retry.Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Fatal
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests || se.Code >= 500 {
			return retry.Retryable
		}
		return retry.Fatal
	}
	return retry.Retryable
}

// Telegram posts alerts to a chat through the Bot API sendMessage method.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	policy  retry.Policy
	logger  *log.Logger
}

// TelegramOption configures Telegram.
type TelegramOption func(*Telegram)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		t.client = client
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) TelegramOption {
	return func(t *Telegram) {
		t.policy = p
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(l *log.Logger) TelegramOption {
	return func(t *Telegram) {
		t.logger = l
	}
}

// NewTelegram creates a Telegram sink. An empty baseURL uses
// DefaultTelegramBaseURL.
func NewTelegram(baseURL, token, chatID string, opts ...TelegramOption) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramBaseURL
	}
	t := &Telegram{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: DefaultTimeout},
		policy:  retry.DefaultPolicy(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.policy.Classify = ClassifyHTTP
	t.policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		t.logger.Printf("telegram attempt %d failed, retrying in %s: %v", attempt, wait, err)
	}
	return t
}

var _ Notifier = (*Telegram)(nil)

// Name implements Notifier.
func (t *Telegram) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Notify sends msg as plain text.
func (t *Telegram) Notify(ctx context.Context, msg domain.AlertMessage) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  msg.Text(),
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage: %w", err)
	}

	return retry.Do(ctx, t.policy, func(ctx context.Context) error {
		return t.send(ctx, body)
	})
}

func (t *Telegram) send(ctx context.Context, body []byte) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		observability.RecordExternalCall("telegram", "error", time.Since(start).Seconds())
		return fmt.Errorf("send request: %w", redact(err, t.token))
	}
	defer resp.Body.Close()
	observability.RecordExternalCall("telegram", fmt.Sprint(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// redact strips the bot token from transport errors, which quote the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
