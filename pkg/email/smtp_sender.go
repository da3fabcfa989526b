package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	mail "gopkg.in/mail.v2"
)

type smtpSender struct {
	config Config
}

// NewSMTPSender creates a plain SMTP email sender. Useful for deployments
// with their own relay and for local mailcatcher setups.
func NewSMTPSender(cfg Config) (Sender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if cfg.SMTPPort <= 0 {
		return nil, fmt.Errorf("%w: SMTPPort must be positive", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &smtpSender{config: cfg}, nil
}

// SendEmail dials the configured relay and sends one message. SMTP carries
// no provider message id, so a generated id is returned for the audit trail.
func (s *smtpSender) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", s.config.SenderEmail)
	msg.SetHeader("To", params.SendTo)
	msg.SetHeader("Subject", params.Subject)
	if s.config.ReplyTo != "" {
		msg.SetHeader("Reply-To", s.config.ReplyTo)
	}

	if params.BodyText != "" {
		msg.SetBody("text/plain", params.BodyText)
		if params.BodyHTML != "" {
			msg.AddAlternative("text/html", params.BodyHTML)
		}
	} else {
		msg.SetBody("text/html", params.BodyHTML)
	}

	dialer := mail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}

	return "smtp-" + uuid.NewString(), nil
}
