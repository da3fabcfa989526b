package provider

import "github.com/saasforge/notifykit/pkg/email"

// Config aggregates provider credentials for all external channels. Fields
// left empty disable the corresponding channel at registry build time.
type Config struct {
	Email email.Config

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioSMSFrom      string `env:"TWILIO_SMS_FROM"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	PushWebhookURL    string `env:"PUSH_WEBHOOK_URL"`
	PushWebhookSecret string `env:"PUSH_WEBHOOK_SECRET"`
}

// EmailEnabled reports whether an email transport is configured.
func (c Config) EmailEnabled() bool {
	return c.Email.Transport != ""
}

// TwilioEnabled reports whether Twilio credentials are present. SMS and
// WhatsApp additionally require their channel-specific from numbers.
func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}
