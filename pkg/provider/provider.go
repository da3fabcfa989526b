package provider

import (
	"context"
	"fmt"
)

// Channel is a delivery medium for a notification. ChannelNone marks
// in-app-only notifications that never leave the system.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelPush     Channel = "push"
	ChannelNone     Channel = "none"
)

// Valid reports whether ch is a known channel.
func (ch Channel) Valid() bool {
	switch ch {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelTelegram, ChannelPush, ChannelNone:
		return true
	}
	return false
}

// External reports whether the channel involves an external delivery
// provider. ChannelNone is the only internal channel.
func (ch Channel) External() bool {
	return ch.Valid() && ch != ChannelNone
}

// Payload is the channel-specific content of one delivery attempt. Each
// external channel has exactly one payload type; the dispatch path switches
// over the channel tag so missing cases are caught at compile time.
type Payload interface {
	Channel() Channel
}

// EmailPayload carries a rendered email.
type EmailPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

func (EmailPayload) Channel() Channel { return ChannelEmail }

// SMSPayload carries a plain text message to a phone number.
type SMSPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (SMSPayload) Channel() Channel { return ChannelSMS }

// WhatsAppPayload carries a plain text WhatsApp message.
type WhatsAppPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (WhatsAppPayload) Channel() Channel { return ChannelWhatsApp }

// TelegramPayload carries a message to a Telegram chat.
type TelegramPayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (TelegramPayload) Channel() Channel { return ChannelTelegram }

// PushPayload carries a push notification addressed by device token.
type PushPayload struct {
	DeviceToken string            `json:"device_token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

func (PushPayload) Channel() Channel { return ChannelPush }

// Provider attempts delivery over one channel.
//
// Send performs exactly one delivery attempt and never returns a Go error:
// expected failure modes (timeouts, rejected payloads, auth errors) are
// converted into a failed Result whose Error carries the retryability
// classification the queue acts on. Retry policy is the queue's job, not
// the provider's.
type Provider interface {
	// Name identifies the provider in logs and on the notification record.
	Name() string

	// ValidatePayload performs a cheap structural check (required fields
	// present, payload type matches the channel) before any network call.
	ValidatePayload(p Payload) error

	// Send attempts a single delivery.
	Send(ctx context.Context, p Payload) Result
}

// Result is the uniform outcome of one delivery attempt.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     *Error `json:"error,omitempty"`
}

// Error is a structured delivery failure. Retryable failures are transport
// trouble the queue should retry with backoff; non-retryable ones
// (validation, auth, configuration) will fail identically on every attempt.
type Error struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Success builds a successful Result.
func Success(messageID string) Result {
	return Result{Success: true, MessageID: messageID}
}

// Failure builds a failed Result.
func Failure(code Code, message string, retryable bool) Result {
	return Result{Error: &Error{Code: code, Message: message, Retryable: retryable}}
}
