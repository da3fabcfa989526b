package email

// Transport selects the concrete Sender implementation built by New.
type Transport string

const (
	TransportPostmark Transport = "postmark"
	TransportSMTP     Transport = "smtp"
	TransportDev      Transport = "dev"
)

// Config holds email delivery configuration for all supported transports.
// SenderEmail is required for every transport since it establishes the
// sender identity; transport-specific credentials are only required by the
// transport that uses them.
type Config struct {
	Transport   Transport `env:"EMAIL_TRANSPORT" envDefault:"postmark"`
	SenderEmail string    `env:"EMAIL_SENDER,required"`
	ReplyTo     string    `env:"EMAIL_REPLY_TO"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// New builds the Sender selected by cfg.Transport.
func New(cfg Config) (Sender, error) {
	switch cfg.Transport {
	case TransportPostmark:
		return NewPostmarkSender(cfg)
	case TransportSMTP:
		return NewSMTPSender(cfg)
	case TransportDev:
		return NewDevSender(cfg.DevOutputDir), nil
	default:
		return nil, ErrUnknownTransport
	}
}
