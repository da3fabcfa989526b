package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/saasforge/notifykit/pkg/email"
)

type emailProvider struct {
	sender email.Sender
}

// NewEmailProvider wraps an email transport as a channel provider.
func NewEmailProvider(sender email.Sender) Provider {
	return &emailProvider{sender: sender}
}

func (p *emailProvider) Name() string { return "email" }

func (p *emailProvider) ValidatePayload(payload Payload) error {
	ep, ok := payload.(EmailPayload)
	if !ok {
		return fmt.Errorf("%w: want EmailPayload, got %T", ErrPayloadType, payload)
	}
	if ep.To == "" {
		return fmt.Errorf("%w: to", ErrMissingField)
	}
	if ep.Subject == "" {
		return fmt.Errorf("%w: subject", ErrMissingField)
	}
	if ep.TextBody == "" && ep.HTMLBody == "" {
		return fmt.Errorf("%w: body", ErrMissingField)
	}
	return nil
}

func (p *emailProvider) Send(ctx context.Context, payload Payload) Result {
	ep, ok := payload.(EmailPayload)
	if !ok {
		return Failure(CodeInvalidPayload, fmt.Sprintf("want EmailPayload, got %T", payload), false)
	}

	messageID, err := p.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   ep.To,
		Subject:  ep.Subject,
		BodyText: ep.TextBody,
		BodyHTML: ep.HTMLBody,
		Tag:      ep.Tag,
	})
	if err != nil {
		// Rejections are permanent (bad address, suppressed recipient);
		// transport failures are worth retrying.
		retryable := !errors.Is(err, email.ErrRejected) && !errors.Is(err, email.ErrInvalidParams)
		return Failure(CodeSendFailed, err.Error(), retryable)
	}

	return Success(messageID)
}
