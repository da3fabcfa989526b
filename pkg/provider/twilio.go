package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST client the SMS and WhatsApp
// providers need. Kept minimal so tests can substitute a fake.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

func newTwilioClient(accountSID, authToken string) messageCreator {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return client.Api
}

type smsProvider struct {
	client messageCreator
	from   string
}

// NewSMSProvider sends plain SMS through the Twilio Messaging API.
func NewSMSProvider(client messageCreator, from string) Provider {
	return &smsProvider{client: client, from: from}
}

func (p *smsProvider) Name() string { return "twilio-sms" }

func (p *smsProvider) ValidatePayload(payload Payload) error {
	sp, ok := payload.(SMSPayload)
	if !ok {
		return fmt.Errorf("%w: want SMSPayload, got %T", ErrPayloadType, payload)
	}
	if sp.To == "" {
		return fmt.Errorf("%w: to", ErrMissingField)
	}
	if sp.Body == "" {
		return fmt.Errorf("%w: body", ErrMissingField)
	}
	return nil
}

func (p *smsProvider) Send(ctx context.Context, payload Payload) Result {
	sp, ok := payload.(SMSPayload)
	if !ok {
		return Failure(CodeInvalidPayload, fmt.Sprintf("want SMSPayload, got %T", payload), false)
	}
	if p.from == "" {
		return Failure(CodeMissingFrom, "sms sender number is not configured", false)
	}
	return sendTwilioMessage(p.client, sp.To, p.from, sp.Body)
}

type whatsappProvider struct {
	client messageCreator
	from   string
}

// NewWhatsAppProvider sends WhatsApp messages through the Twilio Messaging
// API. The whatsapp: address prefix is applied here so callers pass bare
// phone numbers.
func NewWhatsAppProvider(client messageCreator, from string) Provider {
	return &whatsappProvider{client: client, from: from}
}

func (p *whatsappProvider) Name() string { return "twilio-whatsapp" }

func (p *whatsappProvider) ValidatePayload(payload Payload) error {
	wp, ok := payload.(WhatsAppPayload)
	if !ok {
		return fmt.Errorf("%w: want WhatsAppPayload, got %T", ErrPayloadType, payload)
	}
	if wp.To == "" {
		return fmt.Errorf("%w: to", ErrMissingField)
	}
	if wp.Body == "" {
		return fmt.Errorf("%w: body", ErrMissingField)
	}
	return nil
}

func (p *whatsappProvider) Send(ctx context.Context, payload Payload) Result {
	wp, ok := payload.(WhatsAppPayload)
	if !ok {
		return Failure(CodeInvalidPayload, fmt.Sprintf("want WhatsAppPayload, got %T", payload), false)
	}
	if p.from == "" {
		return Failure(CodeMissingFrom, "whatsapp sender number is not configured", false)
	}
	return sendTwilioMessage(p.client, "whatsapp:"+wp.To, "whatsapp:"+p.from, wp.Body)
}

func sendTwilioMessage(client messageCreator, to, from, body string) Result {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := client.CreateMessage(params)
	if err != nil {
		return Failure(CodeSendFailed, err.Error(), twilioRetryable(err))
	}

	messageID := ""
	if msg != nil && msg.Sid != nil {
		messageID = *msg.Sid
	}
	return Success(messageID)
}

// twilioRetryable classifies a Twilio error. Rate limiting and server-side
// failures are transient; any other REST error (bad number, auth, invalid
// request) is permanent. Errors that never reached the API are transport
// failures and stay retryable.
func twilioRetryable(err error) bool {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Status == 429 || restErr.Status >= 500
	}
	return true
}
