package email

import (
	"context"
	"errors"
	"regexp"
)

// Sender sends a single email and returns the transport's message id.
// Implementations must not retry internally; retry policy belongs to the
// notification queue.
type Sender interface {
	SendEmail(ctx context.Context, params SendEmailParams) (messageID string, err error)
}

// SendEmailParams represents the parameters for sending an email.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`             // Email address of the recipient
	Subject  string `json:"subject"`             // Subject of the email
	BodyText string `json:"body_text"`           // Plain text body of the email
	BodyHTML string `json:"body_html,omitempty"` // HTML body of the email
	Tag      string `json:"tag,omitempty"`       // Optional tag for provider-side analytics
}

// emailRegex is deliberately loose; real validation happens at the provider.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate performs a cheap structural check before any network call.
func (p SendEmailParams) Validate() error {
	if p.SendTo == "" || !emailRegex.MatchString(p.SendTo) {
		return errors.Join(ErrInvalidParams, errors.New("send_to must be a valid email address"))
	}
	if p.Subject == "" {
		return errors.Join(ErrInvalidParams, errors.New("subject is required"))
	}
	if p.BodyText == "" && p.BodyHTML == "" {
		return errors.Join(ErrInvalidParams, errors.New("either body_text or body_html is required"))
	}
	return nil
}
