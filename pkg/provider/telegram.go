package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

type telegramProvider struct {
	token   string
	baseURL string
	client  *http.Client
}

// TelegramOption configures the Telegram provider.
type TelegramOption func(*telegramProvider)

// WithTelegramBaseURL overrides the Bot API host. Used in tests.
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(p *telegramProvider) {
		p.baseURL = baseURL
	}
}

// WithTelegramHTTPClient replaces the default HTTP client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(p *telegramProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewTelegramProvider sends messages through the Telegram Bot API.
func NewTelegramProvider(token string, opts ...TelegramOption) Provider {
	p := &telegramProvider{
		token:   token,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *telegramProvider) Name() string { return "telegram" }

func (p *telegramProvider) ValidatePayload(payload Payload) error {
	tp, ok := payload.(TelegramPayload)
	if !ok {
		return fmt.Errorf("%w: want TelegramPayload, got %T", ErrPayloadType, payload)
	}
	if tp.ChatID == "" {
		return fmt.Errorf("%w: chatId", ErrMissingField)
	}
	if tp.Text == "" {
		return fmt.Errorf("%w: text", ErrMissingField)
	}
	return nil
}

type telegramSendRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramSendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (p *telegramProvider) Send(ctx context.Context, payload Payload) Result {
	tp, ok := payload.(TelegramPayload)
	if !ok {
		return Failure(CodeInvalidPayload, fmt.Sprintf("want TelegramPayload, got %T", payload), false)
	}

	body, err := json.Marshal(telegramSendRequest{
		ChatID:    tp.ChatID,
		Text:      tp.Text,
		ParseMode: tp.ParseMode,
	})
	if err != nil {
		return Failure(CodeInvalidPayload, fmt.Sprintf("marshal request: %v", err), false)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, p.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Failure(CodeSendFailed, fmt.Sprintf("build request: %v", err), false)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Failure(CodeSendFailed, fmt.Sprintf("send request: %v", err), true)
	}
	defer resp.Body.Close()

	var apiResp telegramSendResponse
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		msg := apiResp.Description
		if msg == "" {
			msg = fmt.Sprintf("telegram API error: %s", resp.Status)
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return Failure(CodeSendFailed, msg, retryable)
	}

	return Success(fmt.Sprintf("%d", apiResp.Result.MessageID))
}
