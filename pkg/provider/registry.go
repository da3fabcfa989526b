package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saasforge/notifykit/pkg/email"
)

// Registry holds the configured providers, one optional slot per external
// channel. It is a fixed-shape record rather than a dynamic lookup table so
// that missing-provider handling stays exhaustive.
type Registry struct {
	Email    Provider
	SMS      Provider
	WhatsApp Provider
	Telegram Provider
	Push     Provider

	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for dispatch diagnostics.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// BuildRegistry maps deployment configuration onto the provider set.
// Channels whose configuration is absent resolve to a nil slot; building
// never performs network calls.
func BuildRegistry(cfg Config, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	if cfg.EmailEnabled() {
		sender, err := email.New(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("build email provider: %w", err)
		}
		r.Email = NewEmailProvider(sender)
	}

	if cfg.TwilioEnabled() {
		client := newTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
		if cfg.TwilioSMSFrom != "" {
			r.SMS = NewSMSProvider(client, cfg.TwilioSMSFrom)
		}
		if cfg.TwilioWhatsAppFrom != "" {
			r.WhatsApp = NewWhatsAppProvider(client, cfg.TwilioWhatsAppFrom)
		}
	}

	if cfg.TelegramBotToken != "" {
		r.Telegram = NewTelegramProvider(cfg.TelegramBotToken)
	}

	if cfg.PushWebhookURL != "" {
		r.Push = NewPushProvider(cfg.PushWebhookURL, cfg.PushWebhookSecret)
	}

	return r, nil
}

// ForChannel returns the provider slot for an external channel, or nil when
// the channel is internal, unknown, or unconfigured.
func (r *Registry) ForChannel(ch Channel) Provider {
	switch ch {
	case ChannelEmail:
		return r.Email
	case ChannelSMS:
		return r.SMS
	case ChannelWhatsApp:
		return r.WhatsApp
	case ChannelTelegram:
		return r.Telegram
	case ChannelPush:
		return r.Push
	case ChannelNone:
		return nil
	}
	return nil
}

// Send validates the payload and attempts delivery over the given channel.
// All failure modes come back as a Result: absent provider, unknown channel,
// invalid payload, and provider panics (converted to a retryable sendFailed,
// so one provider bug cannot crash a queue worker).
func (r *Registry) Send(ctx context.Context, ch Channel, p Payload) (result Result) {
	if !ch.External() {
		return Failure(CodeUnknownChannel, fmt.Sprintf("channel %q has no external provider", ch), false)
	}

	prov := r.ForChannel(ch)
	if prov == nil {
		return Failure(CodeProviderNotConfigured, fmt.Sprintf("no provider configured for channel %q", ch), false)
	}

	if err := prov.ValidatePayload(p); err != nil {
		return Failure(CodeInvalidPayload, err.Error(), false)
	}

	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "provider panicked during send",
				slog.String("channel", string(ch)),
				slog.String("provider", prov.Name()),
				slog.Any("panic", rec))
			result = Failure(CodeSendFailed, fmt.Sprintf("provider panic: %v", rec), true)
		}
	}()

	return prov.Send(ctx, p)
}
